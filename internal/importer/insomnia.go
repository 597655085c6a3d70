package importer

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// --- Insomnia v4 (flat resource export, JSON or YAML) ---

type insomniaExport struct {
	Resources []insomniaResource `json:"resources" yaml:"resources"`
}

type insomniaResource struct {
	ID             string           `json:"_id" yaml:"_id"`
	Type           string           `json:"_type" yaml:"_type"`
	ParentID       string           `json:"parentId" yaml:"parentId"`
	Name           string           `json:"name" yaml:"name"`
	Method         string           `json:"method" yaml:"method"`
	URL            *string          `json:"url" yaml:"url"`
	Body           map[string]any   `json:"body" yaml:"body"`
	Headers        []insomniaHeader `json:"headers" yaml:"headers"`
	Authentication map[string]any   `json:"authentication" yaml:"authentication"`
}

type insomniaHeader struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// --- Insomnia v5 (nested collection, YAML or JSON) ---

type insomniaV5 struct {
	Collection []insomniaV5Item `json:"collection" yaml:"collection"`
}

type insomniaV5Item struct {
	Name           string           `json:"name" yaml:"name"`
	URL            *string          `json:"url" yaml:"url"`
	Method         string           `json:"method" yaml:"method"`
	Children       []insomniaV5Item `json:"children" yaml:"children"`
	Headers        []insomniaHeader `json:"headers" yaml:"headers"`
	Body           *insomniaV5Body  `json:"body" yaml:"body"`
	Authentication *insomniaV5Auth  `json:"authentication" yaml:"authentication"`
}

type insomniaV5Body struct {
	MimeType string  `json:"mimeType" yaml:"mimeType"`
	Text     *string `json:"text" yaml:"text"`
}

type insomniaV5Auth struct {
	Type     string  `json:"type" yaml:"type"`
	Token    *string `json:"token" yaml:"token"`
	Username *string `json:"username" yaml:"username"`
	Password *string `json:"password" yaml:"password"`
}

// parseInsomnia tries the three Insomnia encodings in order: v4 resources as
// JSON, v5 collection as YAML, v4 resources as YAML. Decoding alone is not
// enough to accept a shape, the marker field must actually be present.
func parseInsomnia(content []byte) ([]ParsedFolder, error) {
	var jsonExport insomniaExport
	if err := json.Unmarshal(content, &jsonExport); err == nil && jsonExport.Resources != nil {
		return parseInsomniaV4(jsonExport)
	}

	var v5Export insomniaV5
	if err := yaml.Unmarshal(content, &v5Export); err == nil && v5Export.Collection != nil {
		return parseInsomniaV5(v5Export)
	}

	var yamlExport insomniaExport
	if err := yaml.Unmarshal(content, &yamlExport); err == nil && yamlExport.Resources != nil {
		return parseInsomniaV4(yamlExport)
	}

	return nil, fmt.Errorf("detected Insomnia format but failed to parse as JSON export, YAML collection, or YAML export")
}

// parseInsomniaV4 runs two passes over the flat resource list: request
// groups become folders, then requests attach to them by parentId. Requests
// with an unknown parent collect into a trailing "import" folder.
func parseInsomniaV4(export insomniaExport) ([]ParsedFolder, error) {
	folders := map[string]*ParsedFolder{}
	var folderOrder []string
	for _, res := range export.Resources {
		if res.Type == "request_group" {
			name := res.Name
			if name == "" {
				name = "import"
			}
			folders[res.ID] = &ParsedFolder{Name: name}
			folderOrder = append(folderOrder, res.ID)
		}
	}

	var rootRequests []ParsedRequest
	for _, res := range export.Resources {
		if res.Type != "request" {
			continue
		}

		method := res.Method
		if method == "" {
			method = "GET"
		}
		name := res.Name
		if name == "" {
			name = "Unnamed Request"
		}
		var url string
		if res.URL != nil {
			url = *res.URL
		}

		headers := map[string]string{}
		for _, h := range res.Headers {
			headers[h.Name] = h.Value
		}

		bodyType := "none"
		var body *string
		if text, ok := res.Body["text"].(string); ok {
			bodyType = "json"
			body = strPtr(text)
		}

		req := ParsedRequest{
			Name:     name,
			Method:   method,
			URL:      url,
			Body:     body,
			BodyType: bodyType,
			Headers:  headers,
			AuthType: "none",
		}
		if authType, ok := res.Authentication["type"].(string); ok {
			switch authType {
			case "bearer":
				req.AuthType = "bearer"
				if token, ok := res.Authentication["token"].(string); ok {
					req.AuthToken = strPtr(token)
				}
			case "basic":
				req.AuthType = "basic"
				if user, ok := res.Authentication["username"].(string); ok {
					req.AuthUsername = strPtr(user)
				}
				if pass, ok := res.Authentication["password"].(string); ok {
					req.AuthPassword = strPtr(pass)
				}
			}
		}

		if folder, ok := folders[res.ParentID]; ok {
			folder.Requests = append(folder.Requests, req)
		} else {
			rootRequests = append(rootRequests, req)
		}
	}

	var result []ParsedFolder
	for _, id := range folderOrder {
		if len(folders[id].Requests) > 0 {
			result = append(result, *folders[id])
		}
	}
	if len(rootRequests) > 0 {
		result = append(result, ParsedFolder{Name: "import", Requests: rootRequests})
	}
	return result, nil
}

// parseInsomniaV5 walks the nested collection depth first. Items with
// children are folders; their nested path joins with " / ". Top-level items
// that are bare requests have no folder to land in and are skipped.
func parseInsomniaV5(export insomniaV5) ([]ParsedFolder, error) {
	var folders []ParsedFolder
	for i := range export.Collection {
		collectInsomniaV5(&export.Collection[i], "", &folders)
	}
	return folders, nil
}

func collectInsomniaV5(item *insomniaV5Item, path string, folders *[]ParsedFolder) {
	if item.Children == nil {
		return
	}

	folderName := item.Name
	if path != "" {
		folderName = path + " / " + item.Name
	}

	var requests []ParsedRequest
	for i := range item.Children {
		child := &item.Children[i]
		if child.URL != nil {
			requests = append(requests, parseInsomniaV5Request(child))
		} else {
			collectInsomniaV5(child, folderName, folders)
		}
	}

	if len(requests) > 0 {
		*folders = append(*folders, ParsedFolder{Name: folderName, Requests: requests})
	}
}

func parseInsomniaV5Request(item *insomniaV5Item) ParsedRequest {
	name := item.Name
	if name == "" {
		name = "Unnamed Request"
	}
	method := item.Method
	if method == "" {
		method = "GET"
	}
	var url string
	if item.URL != nil {
		url = *item.URL
	}

	headers := map[string]string{}
	for _, h := range item.Headers {
		headers[h.Name] = h.Value
	}

	bodyType := "none"
	var body *string
	if item.Body != nil && item.Body.Text != nil {
		bodyType = "json"
		body = item.Body.Text
	}

	req := ParsedRequest{
		Name:     name,
		Method:   method,
		URL:      url,
		Body:     body,
		BodyType: bodyType,
		Headers:  headers,
		AuthType: "none",
	}
	if item.Authentication != nil {
		switch item.Authentication.Type {
		case "bearer":
			req.AuthType = "bearer"
			req.AuthToken = item.Authentication.Token
		case "basic":
			req.AuthType = "basic"
			req.AuthUsername = item.Authentication.Username
			req.AuthPassword = item.Authentication.Password
		}
	}
	return req
}
