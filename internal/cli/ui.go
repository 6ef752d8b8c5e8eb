package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

func printHeader(title string) {
	fmt.Println(color.CyanString(logo))
	if title != "" {
		fmt.Println(title)
		fmt.Println(strings.Repeat("─", utf8.RuneCountInString(title)))
	}
}
