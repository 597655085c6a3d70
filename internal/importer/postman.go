package importer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// --- Postman v2 ---

type postmanCollectionV2 struct {
	Info postmanInfoV2   `json:"info"`
	Item []postmanItemV2 `json:"item"`
}

type postmanInfoV2 struct {
	Name string `json:"name"`
}

type postmanItemV2 struct {
	Name    string            `json:"name"`
	Request *postmanRequestV2 `json:"request"`
	Item    []postmanItemV2   `json:"item"`
}

type postmanRequestV2 struct {
	Method string            `json:"method"`
	URL    json.RawMessage   `json:"url"`
	Header []postmanHeaderV2 `json:"header"`
	Body   *postmanBodyV2    `json:"body"`
	Auth   *postmanAuthV2    `json:"auth"`
}

type postmanHeaderV2 struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type postmanBodyV2 struct {
	Raw *string `json:"raw"`
}

type postmanAuthV2 struct {
	Type   string               `json:"type"`
	Bearer []postmanAuthParamV2 `json:"bearer"`
	Basic  []postmanAuthParamV2 `json:"basic"`
}

type postmanAuthParamV2 struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// parsePostmanV2 flattens the item tree into a single folder named after the
// collection. Folder nesting inside the export is discarded.
func parsePostmanV2(content []byte) ([]ParsedFolder, error) {
	var collection postmanCollectionV2
	if err := json.Unmarshal(content, &collection); err != nil {
		return nil, err
	}

	var requests []ParsedRequest
	flattenPostmanV2Items(collection.Item, &requests)

	return []ParsedFolder{{Name: collection.Info.Name, Requests: requests}}, nil
}

func flattenPostmanV2Items(items []postmanItemV2, out *[]ParsedRequest) {
	for _, item := range items {
		if item.Request == nil {
			flattenPostmanV2Items(item.Item, out)
			continue
		}
		req := item.Request

		headers := map[string]string{}
		for _, h := range req.Header {
			headers[h.Key] = h.Value
		}

		bodyType := "none"
		var body *string
		if req.Body != nil && req.Body.Raw != nil {
			bodyType = "json"
			body = req.Body.Raw
		}

		parsed := ParsedRequest{
			Name:     item.Name,
			Method:   req.Method,
			URL:      postmanV2URL(req.URL),
			Body:     body,
			BodyType: bodyType,
			Headers:  headers,
			AuthType: "none",
		}

		if req.Auth != nil {
			switch req.Auth.Type {
			case "bearer":
				parsed.AuthType = "bearer"
				parsed.AuthToken = postmanAuthParam(req.Auth.Bearer, "token")
			case "basic":
				parsed.AuthType = "basic"
				parsed.AuthUsername = postmanAuthParam(req.Auth.Basic, "username")
				parsed.AuthPassword = postmanAuthParam(req.Auth.Basic, "password")
			}
		}

		*out = append(*out, parsed)
	}
}

// postmanV2URL accepts both URL encodings: a plain string or an object with
// a "raw" field.
func postmanV2URL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Raw string `json:"raw"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Raw
	}
	return ""
}

// postmanAuthParam finds a named entry in a Postman auth param list. String
// values are used as-is, anything else keeps its JSON encoding.
func postmanAuthParam(params []postmanAuthParamV2, key string) *string {
	for _, p := range params {
		if p.Key != key {
			continue
		}
		var s string
		if err := json.Unmarshal(p.Value, &s); err == nil {
			return &s
		}
		v := string(p.Value)
		return &v
	}
	return nil
}

// --- Postman v1 ---

type postmanCollectionV1 struct {
	Name     string             `json:"name"`
	Requests []postmanRequestV1 `json:"requests"`
}

type postmanRequestV1 struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Method      string  `json:"method"`
	Headers     string  `json:"headers"`
	RawModeData *string `json:"rawModeData"`
}

// parsePostmanV1 reads the legacy flat format. Headers arrive as one
// "Key: Value" line per header.
func parsePostmanV1(content []byte) ([]ParsedFolder, error) {
	var collection postmanCollectionV1
	if err := json.Unmarshal(content, &collection); err != nil {
		return nil, err
	}

	requests := make([]ParsedRequest, 0, len(collection.Requests))
	for _, req := range collection.Requests {
		headers := map[string]string{}
		for _, line := range strings.Split(req.Headers, "\n") {
			line = strings.TrimSuffix(line, "\r")
			if key, value, ok := strings.Cut(line, ":"); ok {
				headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
			}
		}

		requests = append(requests, ParsedRequest{
			Name:     req.Name,
			Method:   req.Method,
			URL:      req.URL,
			Body:     req.RawModeData,
			BodyType: "json",
			Headers:  headers,
			AuthType: "none",
		})
	}

	if collection.Name == "" && len(collection.Requests) == 0 {
		return nil, fmt.Errorf("empty collection")
	}
	return []ParsedFolder{{Name: collection.Name, Requests: requests}}, nil
}
