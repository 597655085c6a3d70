package importer

import "encoding/json"

type thunderCollection struct {
	CollectionName string           `json:"collectionName"`
	Folders        []thunderFolder  `json:"folders"`
	Requests       []thunderRequest `json:"requests"`
}

type thunderFolder struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type thunderRequest struct {
	ContainerID string          `json:"containerId"`
	Name        string          `json:"name"`
	URL         string          `json:"url"`
	Method      string          `json:"method"`
	Headers     []thunderHeader `json:"headers"`
	Body        *thunderBody    `json:"body"`
	Auth        *thunderAuth    `json:"auth"`
}

type thunderHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type thunderBody struct {
	Type string  `json:"type"`
	Raw  *string `json:"raw"`
}

type thunderAuth struct {
	Type     string  `json:"type"`
	Bearer   *string `json:"bearer"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// parseThunderClient groups requests into their folders by containerId.
// Requests outside any folder land in a trailing folder named after the
// collection, or "import" when the collection has no name. Folders that end
// up empty are dropped.
func parseThunderClient(content []byte) ([]ParsedFolder, error) {
	var collection thunderCollection
	if err := json.Unmarshal(content, &collection); err != nil {
		return nil, err
	}

	byID := map[string]*ParsedFolder{}
	order := make([]string, 0, len(collection.Folders))
	for _, f := range collection.Folders {
		byID[f.ID] = &ParsedFolder{Name: f.Name}
		order = append(order, f.ID)
	}

	var rootRequests []ParsedRequest
	for _, req := range collection.Requests {
		headers := map[string]string{}
		for _, h := range req.Headers {
			headers[h.Name] = h.Value
		}

		bodyType := "none"
		var body *string
		if req.Body != nil {
			bodyType = req.Body.Type
			body = req.Body.Raw
		}

		parsed := ParsedRequest{
			Name:     req.Name,
			Method:   req.Method,
			URL:      req.URL,
			Body:     body,
			BodyType: bodyType,
			Headers:  headers,
			AuthType: "none",
		}
		if req.Auth != nil {
			switch req.Auth.Type {
			case "bearer":
				parsed.AuthType = "bearer"
				parsed.AuthToken = req.Auth.Bearer
			case "basic":
				parsed.AuthType = "basic"
				parsed.AuthUsername = req.Auth.Username
				parsed.AuthPassword = req.Auth.Password
			}
		}

		if folder, ok := byID[req.ContainerID]; ok {
			folder.Requests = append(folder.Requests, parsed)
		} else {
			rootRequests = append(rootRequests, parsed)
		}
	}

	var result []ParsedFolder
	for _, id := range order {
		if len(byID[id].Requests) > 0 {
			result = append(result, *byID[id])
		}
	}
	if len(rootRequests) > 0 {
		name := collection.CollectionName
		if name == "" {
			name = "import"
		}
		result = append(result, ParsedFolder{Name: name, Requests: rootRequests})
	}
	return result, nil
}
