// Command posmigrate applies SQL migration registries to point-of-sale databases.
package main

import "github.com/aqasim81/posmigrate/internal/cli"

func main() {
	cli.Execute()
}
