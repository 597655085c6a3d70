package executor

import "strings"

// Substitute replaces every {{name}} placeholder in template with its value
// from vars. Placeholders that survive the pass make the whole template
// invalid: partially resolved requests must not leak to the network.
func Substitute(template string, vars map[string]string) (string, error) {
	result := template
	for key, value := range vars {
		placeholder := "{{" + key + "}}"
		if strings.Contains(result, placeholder) {
			result = strings.ReplaceAll(result, placeholder, value)
		}
	}
	if strings.Contains(result, "{{") && strings.Contains(result, "}}") {
		return "", &Error{Kind: KindSubstitution, Message: "Unresolved variables found"}
	}
	return result, nil
}

func substituteOpt(s *string, vars map[string]string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	out, err := Substitute(*s, vars)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
