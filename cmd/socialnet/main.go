// @title Social Graph API
// @version 1.0
// @description Users, thoughts, reactions and friend sets over a document store.
// @BasePath /api
package main

import "github.com/d60-Lab/social-graph/cmd/socialnet/commands"

func main() {
	commands.Execute()
}
