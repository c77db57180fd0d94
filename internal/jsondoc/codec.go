package jsondoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/jsonc"
)

const (
	indentationUnitConstant            = "  "
	documentNotObjectMessageConstant   = "document root is not a JSON object"
	trailingContentMessageConstant     = "unexpected content after JSON document"
	unexpectedTokenTemplateConstant    = "unexpected JSON token %v"
	objectKeyNotStringTemplateConstant = "object key %v is not a string"
	decodeErrorTemplateConstant        = "failed to decode JSON document: %w"
	encodeStringErrorTemplateConstant  = "failed to encode JSON string: %w"
	unsupportedValueTemplateConstant   = "unsupported JSON value of type %T"
)

// ErrNotObject indicates a document whose root value is not an object.
var ErrNotObject = errors.New(documentNotObjectMessageConstant)

// Parse decodes a JSON object preserving key order. Comments and trailing commas are tolerated.
func Parse(data []byte) (*Object, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()

	rootValue, decodeError := decodeValue(decoder)
	if decodeError != nil {
		return nil, fmt.Errorf(decodeErrorTemplateConstant, decodeError)
	}

	if _, trailingError := decoder.Token(); !errors.Is(trailingError, io.EOF) {
		return nil, fmt.Errorf(decodeErrorTemplateConstant, errors.New(trailingContentMessageConstant))
	}

	rootObject, isObject := rootValue.(*Object)
	if !isObject {
		return nil, ErrNotObject
	}
	return rootObject, nil
}

func decodeValue(decoder *json.Decoder) (any, error) {
	token, tokenError := decoder.Token()
	if tokenError != nil {
		return nil, tokenError
	}

	switch typedToken := token.(type) {
	case json.Delim:
		switch typedToken {
		case '{':
			return decodeObject(decoder)
		case '[':
			return decodeArray(decoder)
		default:
			return nil, fmt.Errorf(unexpectedTokenTemplateConstant, typedToken)
		}
	default:
		return typedToken, nil
	}
}

func decodeObject(decoder *json.Decoder) (*Object, error) {
	object := NewObject()
	for decoder.More() {
		keyToken, keyError := decoder.Token()
		if keyError != nil {
			return nil, keyError
		}
		key, isString := keyToken.(string)
		if !isString {
			return nil, fmt.Errorf(objectKeyNotStringTemplateConstant, keyToken)
		}
		value, valueError := decodeValue(decoder)
		if valueError != nil {
			return nil, valueError
		}
		object.Set(key, value)
	}
	if _, closingError := decoder.Token(); closingError != nil {
		return nil, closingError
	}
	return object, nil
}

func decodeArray(decoder *json.Decoder) ([]any, error) {
	elements := []any{}
	for decoder.More() {
		element, elementError := decodeValue(decoder)
		if elementError != nil {
			return nil, elementError
		}
		elements = append(elements, element)
	}
	if _, closingError := decoder.Token(); closingError != nil {
		return nil, closingError
	}
	return elements, nil
}

// Marshal encodes the object with two-space indentation and no trailing newline.
func Marshal(object *Object) ([]byte, error) {
	var buffer bytes.Buffer
	if object == nil {
		object = NewObject()
	}
	if encodeError := encodeValue(&buffer, object, 0); encodeError != nil {
		return nil, encodeError
	}
	return buffer.Bytes(), nil
}

func encodeValue(buffer *bytes.Buffer, value any, depth int) error {
	switch typedValue := value.(type) {
	case nil:
		buffer.WriteString("null")
	case bool:
		if typedValue {
			buffer.WriteString("true")
		} else {
			buffer.WriteString("false")
		}
	case json.Number:
		buffer.WriteString(typedValue.String())
	case string:
		return encodeString(buffer, typedValue)
	case *Object:
		return encodeObject(buffer, typedValue, depth)
	case []any:
		return encodeArray(buffer, typedValue, depth)
	case []string:
		elements := make([]any, 0, len(typedValue))
		for _, element := range typedValue {
			elements = append(elements, element)
		}
		return encodeArray(buffer, elements, depth)
	case int:
		buffer.WriteString(fmt.Sprintf("%d", typedValue))
	case float64:
		encoded, encodeError := json.Marshal(typedValue)
		if encodeError != nil {
			return encodeError
		}
		buffer.Write(encoded)
	default:
		return fmt.Errorf(unsupportedValueTemplateConstant, value)
	}
	return nil
}

func encodeString(buffer *bytes.Buffer, value string) error {
	var encoded bytes.Buffer
	encoder := json.NewEncoder(&encoded)
	encoder.SetEscapeHTML(false)
	if encodeError := encoder.Encode(value); encodeError != nil {
		return fmt.Errorf(encodeStringErrorTemplateConstant, encodeError)
	}
	buffer.Write(bytes.TrimRight(encoded.Bytes(), "\n"))
	return nil
}

func encodeObject(buffer *bytes.Buffer, object *Object, depth int) error {
	if object.Len() == 0 {
		buffer.WriteString("{}")
		return nil
	}
	buffer.WriteString("{\n")
	for keyIndex, key := range object.keys {
		writeIndentation(buffer, depth+1)
		if encodeError := encodeString(buffer, key); encodeError != nil {
			return encodeError
		}
		buffer.WriteString(": ")
		if encodeError := encodeValue(buffer, object.values[key], depth+1); encodeError != nil {
			return encodeError
		}
		if keyIndex < len(object.keys)-1 {
			buffer.WriteString(",")
		}
		buffer.WriteString("\n")
	}
	writeIndentation(buffer, depth)
	buffer.WriteString("}")
	return nil
}

func encodeArray(buffer *bytes.Buffer, elements []any, depth int) error {
	if len(elements) == 0 {
		buffer.WriteString("[]")
		return nil
	}
	buffer.WriteString("[\n")
	for elementIndex, element := range elements {
		writeIndentation(buffer, depth+1)
		if encodeError := encodeValue(buffer, element, depth+1); encodeError != nil {
			return encodeError
		}
		if elementIndex < len(elements)-1 {
			buffer.WriteString(",")
		}
		buffer.WriteString("\n")
	}
	writeIndentation(buffer, depth)
	buffer.WriteString("]")
	return nil
}

func writeIndentation(buffer *bytes.Buffer, depth int) {
	buffer.WriteString(strings.Repeat(indentationUnitConstant, depth))
}
