package main

import (
	"github.com/Majo7-613/Wheels-Unisabana-2/internal"
)

func main() {
	internal.Init()
}
