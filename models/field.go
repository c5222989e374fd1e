package models

// Field selects a part of an incoming request and the value a predicate
// compares it with. Key is set for selectors that address an entry inside an
// object, such as a single header or query parameter.
type Field struct {
	Selector string
	Key      string
	Value    any
}

// Path selects the request path.
func Path(path string) Field { return Field{Selector: "path", Value: path} }

// Method selects the HTTP method.
func Method(method string) Field { return Field{Selector: "method", Value: method} }

// Header selects a single request header. Value is usually a string, or a
// bool when used with Exists.
func Header(name string, value any) Field {
	return Field{Selector: "headers", Key: name, Value: value}
}

// Query selects a single query string parameter.
func Query(name string, value any) Field {
	return Field{Selector: "query", Key: name, Value: value}
}

// Body selects the request body. Objects are compared structurally by the
// remote service when used with DeepEquals.
func Body(value any) Field { return Field{Selector: "body", Value: value} }

// Data selects the payload of a TCP request.
func Data(data string) Field { return Field{Selector: "data", Value: data} }

// RequestFrom selects the client address of the request.
func RequestFrom(addr string) Field { return Field{Selector: "requestFrom", Value: addr} }

// From selects the sender of an SMTP message.
func From(value any) Field { return Field{Selector: "from", Value: value} }

// Subject selects the subject of an SMTP message.
func Subject(subject string) Field { return Field{Selector: "subject", Value: subject} }

// Text selects the plain text part of an SMTP message.
func Text(text string) Field { return Field{Selector: "text", Value: text} }

func (f Field) apply(fields map[string]any) {
	if f.Key == "" {
		fields[f.Selector] = f.Value
		return
	}
	nested, ok := fields[f.Selector].(map[string]any)
	if !ok {
		nested = make(map[string]any)
		fields[f.Selector] = nested
	}
	nested[f.Key] = f.Value
}

func cloneFields(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneFields(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
