package helpdesk

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// lastDescription picks the last "description" member found anywhere in the
// document, in document order.
var lastDescription = func() *gojq.Code {
	q, err := gojq.Parse(`[.. | objects | .description? // empty] | last`)
	if err != nil {
		panic(err)
	}
	code, err := gojq.Compile(q)
	if err != nil {
		panic(err)
	}
	return code
}()

// Describe turns err into a short human readable reason. When the error
// message embeds a JSON document, the last description value in it is used;
// otherwise the raw message is returned unchanged. The document runs from the
// first "{" to the last "}" and may span lines, so two separate fragments do
// not parse and fall back to the raw message.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if d, ok := extractDescription(msg); ok {
		return d
	}
	return msg
}

func extractDescription(msg string) (string, bool) {
	start := strings.Index(msg, "{")
	end := strings.LastIndex(msg, "}")
	if start < 0 || end <= start {
		return "", false
	}

	var doc any
	if err := json.Unmarshal([]byte(msg[start:end+1]), &doc); err != nil {
		return "", false
	}

	iter := lastDescription.Run(doc)
	v, ok := iter.Next()
	if !ok || v == nil {
		return "", false
	}
	if _, isErr := v.(error); isErr {
		return "", false
	}

	var s string
	if str, isStr := v.(string); isStr {
		s = str
	} else {
		s = fmt.Sprint(v)
	}
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
