// Package docs embeds the OpenAPI description served under /docs.
package docs

import _ "embed"

//go:embed bookings.swagger.json
var swagger []byte

func Swagger() []byte { return swagger }
