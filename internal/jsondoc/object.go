package jsondoc

// Object is a JSON object that remembers the insertion order of its keys.
// Values are *Object, []any, string, json.Number, bool or nil once parsed.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject constructs an empty ordered object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Keys returns the object keys in document order.
func (object *Object) Keys() []string {
	if object == nil {
		return nil
	}
	return append([]string{}, object.keys...)
}

// Len reports the number of keys.
func (object *Object) Len() int {
	if object == nil {
		return 0
	}
	return len(object.keys)
}

// Has reports whether the key is present.
func (object *Object) Has(key string) bool {
	if object == nil {
		return false
	}
	_, present := object.values[key]
	return present
}

// Get returns the raw value stored under key.
func (object *Object) Get(key string) (any, bool) {
	if object == nil {
		return nil, false
	}
	value, present := object.values[key]
	return value, present
}

// String returns the value under key when it is a JSON string.
func (object *Object) String(key string) (string, bool) {
	value, present := object.Get(key)
	if !present {
		return "", false
	}
	stringValue, isString := value.(string)
	return stringValue, isString
}

// Object returns the nested object under key.
func (object *Object) Object(key string) (*Object, bool) {
	value, present := object.Get(key)
	if !present {
		return nil, false
	}
	nestedObject, isObject := value.(*Object)
	return nestedObject, isObject && nestedObject != nil
}

// EnsureObject returns the nested object under key, creating it at the end of the document when absent or not an object.
func (object *Object) EnsureObject(key string) *Object {
	if nestedObject, present := object.Object(key); present {
		return nestedObject
	}
	nestedObject := NewObject()
	object.Set(key, nestedObject)
	return nestedObject
}

// Set stores value under key. Existing keys keep their position, new keys are appended.
func (object *Object) Set(key string, value any) {
	if _, present := object.values[key]; !present {
		object.keys = append(object.keys, key)
	}
	object.values[key] = value
}

// Delete removes key and reports whether it was present.
func (object *Object) Delete(key string) bool {
	if _, present := object.values[key]; !present {
		return false
	}
	delete(object.values, key)
	for keyIndex, existingKey := range object.keys {
		if existingKey == key {
			object.keys = append(object.keys[:keyIndex], object.keys[keyIndex+1:]...)
			break
		}
	}
	return true
}

// MoveToFront places the keys accepted by selector before all other keys, preserving relative order in both groups.
func (object *Object) MoveToFront(selector func(key string) bool) {
	if object == nil || selector == nil {
		return
	}
	selectedKeys := make([]string, 0, len(object.keys))
	remainingKeys := make([]string, 0, len(object.keys))
	for _, key := range object.keys {
		if selector(key) {
			selectedKeys = append(selectedKeys, key)
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	object.keys = append(selectedKeys, remainingKeys...)
}

// MoveToBack places the listed keys after all other keys in the listed order. Absent keys are ignored.
func (object *Object) MoveToBack(keys ...string) {
	if object == nil || len(keys) == 0 {
		return
	}
	trailingKeySet := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		trailingKeySet[key] = struct{}{}
	}
	reorderedKeys := make([]string, 0, len(object.keys))
	for _, key := range object.keys {
		if _, trailing := trailingKeySet[key]; trailing {
			continue
		}
		reorderedKeys = append(reorderedKeys, key)
	}
	for _, key := range keys {
		if _, present := object.values[key]; present {
			reorderedKeys = append(reorderedKeys, key)
		}
	}
	object.keys = reorderedKeys
}
