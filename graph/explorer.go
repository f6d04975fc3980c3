package graph

import _ "embed"

//go:embed explorer.html
var ExplorerHTML []byte
