package credit

import (
	"io"
	"net/http"
)

const maxBody = 1 << 20

func readBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	return string(body)
}
