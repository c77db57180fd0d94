package jsondoc_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mlefree/mle-best-practices/internal/jsondoc"
)

const (
	testCaseTemplateConstant = "%d_%s"
)

func TestParseAndMarshalPreserveKeyOrder(testInstance *testing.T) {
	testCases := []struct {
		name           string
		input          string
		expectedOutput string
	}{
		{
			name:           "keeps_insertion_order",
			input:          `{"zeta":1,"alpha":{"b":true,"a":null},"list":["x",2.5]}`,
			expectedOutput: "{\n  \"zeta\": 1,\n  \"alpha\": {\n    \"b\": true,\n    \"a\": null\n  },\n  \"list\": [\n    \"x\",\n    2.5\n  ]\n}",
		},
		{
			name:           "empty_collections",
			input:          `{"scripts":{},"exclude":[]}`,
			expectedOutput: "{\n  \"scripts\": {},\n  \"exclude\": []\n}",
		},
		{
			name:           "tolerates_comments_and_trailing_commas",
			input:          "{\n // note\n \"version\": \"1.0.0\",\n}",
			expectedOutput: "{\n  \"version\": \"1.0.0\"\n}",
		},
		{
			name:           "does_not_escape_html_characters",
			input:          `{"cmd":"a && b > c"}`,
			expectedOutput: "{\n  \"cmd\": \"a && b > c\"\n}",
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testCaseTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			object, parseError := jsondoc.Parse([]byte(testCase.input))
			require.NoError(testInstance, parseError)

			encoded, marshalError := jsondoc.Marshal(object)
			require.NoError(testInstance, marshalError)
			require.Equal(testInstance, testCase.expectedOutput, string(encoded))
		})
	}
}

func TestParseRejectsInvalidDocuments(testInstance *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "array_root", input: `[1,2]`},
		{name: "truncated", input: `{"a":`},
		{name: "empty", input: ``},
		{name: "trailing_content", input: `{} {}`},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testCaseTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			_, parseError := jsondoc.Parse([]byte(testCase.input))
			require.Error(testInstance, parseError)
		})
	}
}

func TestObjectMutations(testInstance *testing.T) {
	object := jsondoc.NewObject()
	object.Set("name", "demo")
	object.Set("scripts", jsondoc.NewObject())
	object.Set("version", "1.0.0")
	object.Set("name", "renamed")

	require.Equal(testInstance, []string{"name", "scripts", "version"}, object.Keys())
	nameValue, nameFound := object.String("name")
	require.True(testInstance, nameFound)
	require.Equal(testInstance, "renamed", nameValue)

	object.MoveToBack("scripts", "missing")
	require.Equal(testInstance, []string{"name", "version", "scripts"}, object.Keys())

	object.MoveToFront(func(key string) bool { return key == "version" })
	require.Equal(testInstance, []string{"version", "name", "scripts"}, object.Keys())

	require.True(testInstance, object.Delete("name"))
	require.False(testInstance, object.Delete("name"))
	require.Equal(testInstance, 2, object.Len())

	nested := object.EnsureObject("devDependencies")
	nested.Set("prettier", "^3.0.0")
	require.True(testInstance, object.Has("devDependencies"))
	_, isObject := object.Object("version")
	require.False(testInstance, isObject)
}
