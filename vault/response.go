package vault

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/GlueOps/glueops"
)

// checkResponse validates a response from the store and decodes its body. The
// redirect check always comes first, then the status check, then decoding. An
// empty body decodes to nil if allowEmpty is set.
func checkResponse(resp *http.Response, allowEmpty bool) (map[string]interface{}, error) {
	if location := resp.Header.Get("Location"); location != "" {
		return nil, glueops.NewRedirectError(location, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, glueops.NewNetworkError("reading response body", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, glueops.NewAPIError(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if allowEmpty && len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var decoded map[string]interface{}
	if err := dec.Decode(&decoded); err != nil {
		return nil, glueops.NewMalformedResponseError("decoding response body", err)
	}
	if decoded == nil {
		return nil, glueops.NewMalformedResponseError("response body is not a JSON object", nil)
	}

	return decoded, nil
}

// secretData extracts the secret key-value pairs from a KV v2 read envelope of
// the form {"data": {"data": {...}}}.
func secretData(envelope map[string]interface{}) (map[string]string, error) {
	outer, ok := envelope["data"]
	if !ok {
		return nil, glueops.NewMalformedResponseError("missing data", nil)
	}
	outerData, ok := outer.(map[string]interface{})
	if !ok {
		return nil, glueops.NewMalformedResponseError("data is not an object", nil)
	}
	inner, ok := outerData["data"].(map[string]interface{})
	if !ok || len(inner) == 0 {
		return nil, glueops.NewMalformedResponseError("missing secret data in data.data", nil)
	}

	secret := make(map[string]string, len(inner))
	for k, v := range inner {
		if s, ok := v.(string); ok {
			secret[k] = s
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, glueops.NewMalformedResponseError("encoding value of key '"+k+"'", err)
		}
		secret[k] = string(raw)
	}

	return secret, nil
}
