package acl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/theory/jsonpath"

	"github.com/jsamuelsen/aquote/internal/domain"
)

// QueryEngine selects values from a decoded JSON document.
// Implementations must be deterministic and free of side effects.
type QueryEngine interface {
	// Select returns the values matched by query, in document order.
	// An empty result is not an error.
	Select(query string, document any) ([]any, error)
}

// JSONPathEngine evaluates RFC 9535 JSONPath queries.
//
// Queries that do not start with "$" are read as dotted paths, the format
// many vendor configs use:
//
//	quote                       -> $.quote
//	contents.quotes[0].quote    -> $.contents.quotes[0].quote
//	0.q                         -> $[0].q
//
// Parsed paths are cached; the engine is safe for concurrent use.
type JSONPathEngine struct {
	parser *jsonpath.Parser
	cache  sync.Map // normalized query -> *jsonpath.Path
}

// NewJSONPathEngine creates a JSONPath query engine.
func NewJSONPathEngine() *JSONPathEngine {
	return &JSONPathEngine{parser: jsonpath.NewParser()}
}

// Select implements QueryEngine.
func (e *JSONPathEngine) Select(query string, document any) ([]any, error) {
	path, err := e.compile(query)
	if err != nil {
		return nil, err
	}

	return path.Select(document), nil
}

func (e *JSONPathEngine) compile(query string) (*jsonpath.Path, error) {
	normalized := NormalizeQuery(query)

	if cached, ok := e.cache.Load(normalized); ok {
		return cached.(*jsonpath.Path), nil
	}

	path, err := e.parser.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", query, err)
	}

	e.cache.Store(normalized, path)

	return path, nil
}

// NormalizeQuery converts a dotted path to JSONPath. Queries already
// starting with "$" are returned unchanged apart from surrounding space.
func NormalizeQuery(query string) string {
	query = strings.TrimSpace(query)
	if strings.HasPrefix(query, "$") {
		return query
	}

	var b strings.Builder

	b.WriteString("$")

	for _, segment := range strings.Split(query, ".") {
		name, index, hasIndex := strings.Cut(segment, "[")

		switch {
		case name == "":
		case isArrayIndex(name):
			b.WriteString("[" + name + "]")
		case isMemberName(name):
			b.WriteString("." + name)
		default:
			b.WriteString("['" + strings.ReplaceAll(name, "'", `\'`) + "']")
		}

		if hasIndex {
			b.WriteString("[" + index)
		}
	}

	return b.String()
}

func isArrayIndex(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return s != ""
}

// isMemberName reports whether s can use JSONPath member-name shorthand.
func isMemberName(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r > 0x7f:
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}

	return s != ""
}

// ParseDocument decodes a JSON response body. Numbers are kept as
// json.Number so they convert to text without reformatting.
func ParseDocument(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decoding response: unexpected data after JSON value")
	}

	return doc, nil
}

// Extract runs query against document and converts the first match to T.
//
// A string match yields its content. Any other match is re-encoded as JSON
// and decoded into T, so numeric fields can be requested as numbers. Text
// targets (string or *string) also accept numbers and booleans as their JSON
// text. A null match is only accepted by pointer-like targets, where it
// yields nil.
//
// Errors wrap domain.ErrFieldNotFound when nothing matched and
// domain.ErrTypeMismatch when the match cannot be converted.
func Extract[T any](engine QueryEngine, query string, document any) (T, error) {
	var zero T

	nodes, err := engine.Select(query, document)
	if err != nil {
		return zero, err
	}

	if len(nodes) == 0 {
		return zero, fmt.Errorf("%w: query %q", domain.ErrFieldNotFound, query)
	}

	return convert[T](nodes[0], query)
}

func convert[T any](node any, query string) (T, error) {
	var out T

	if node == nil {
		if nullable(reflect.TypeFor[T]()) {
			return out, nil
		}

		return out, mismatch(query, node)
	}

	if s, ok := node.(string); ok {
		switch target := any(&out).(type) {
		case *string:
			*target = s
			return out, nil
		case **string:
			*target = &s
			return out, nil
		}
	}

	raw, err := json.Marshal(node)
	if err != nil {
		return out, fmt.Errorf("%w: query %q: %w", domain.ErrTypeMismatch, query, err)
	}

	if err := json.Unmarshal(raw, &out); err == nil {
		return out, nil
	}

	if isScalar(node) {
		text := string(raw)

		switch target := any(&out).(type) {
		case *string:
			*target = text
			return out, nil
		case **string:
			*target = &text
			return out, nil
		}
	}

	var zero T

	return zero, mismatch(query, node)
}

func mismatch(query string, node any) error {
	return fmt.Errorf("%w: query %q selected %s", domain.ErrTypeMismatch, query, describe(node))
}

func nullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	default:
		return false
	}
}

func isScalar(node any) bool {
	switch node.(type) {
	case json.Number, float64, bool:
		return true
	default:
		return false
	}
}

// describe names the JSON type of node for error messages.
func describe(node any) string {
	switch node.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case json.Number, float64:
		return "a number"
	case bool:
		return "a boolean"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", node)
	}
}
