package toolregistry

import (
	"encoding/json"
	"net/http"
)

func decodeJSON(resp *http.Response, out any) error {
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
