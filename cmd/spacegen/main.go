// Command spacegen generates wasm entry points for guest packages and runs
// guest modules against the reference host.
//
//	//go:generate go run github.com/space-operator/space-go/cmd/spacegen generate .
package main

func main() {
	Execute()
}
