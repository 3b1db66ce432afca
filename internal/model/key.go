package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Key returns the dedupe identity of n.
//
// With type, server and port all present the key is "type|server|port|uuid".
// Otherwise it is the JSON array [type, server, port, name] with absent members
// encoded as null. The result depends only on field values, so keys computed by
// different processes can be compared.
func Key(n Node) string {
	if n.Type != "" && n.Server != "" && n.Port != 0 {
		var b strings.Builder
		b.WriteString(string(n.Type))
		b.WriteByte('|')
		b.WriteString(n.Server)
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(n.Port))
		b.WriteByte('|')
		b.WriteString(n.UUID())
		return b.String()
	}

	parts := [4]any{nil, nil, nil, n.Name}
	if n.Type != "" {
		parts[0] = string(n.Type)
	}
	if n.Server != "" {
		parts[1] = n.Server
	}
	if n.Port != 0 {
		parts[2] = n.Port
	}
	b, err := json.Marshal(parts)
	if err != nil {
		// Only strings and ints go in; Marshal cannot fail here.
		return string(n.Type) + "|" + n.Server + "|" + strconv.Itoa(n.Port) + "|" + n.Name
	}
	return string(b)
}
