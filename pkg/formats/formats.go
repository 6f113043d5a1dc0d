// Package formats provides parsers for the binary asset formats the client
// loads. GLB (binary glTF 2.0) is implemented in glb.go.
package formats
