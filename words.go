/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	_ "embed"
	"math/rand"
	"strings"
)

//go:embed words.txt
var words string

var wordlist = loadWords(words)

func loadWords(raw string) []string {
	var out []string

	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
			out = append(out, line)
		}
	}

	return out
}

// randomWords suggests n distinct words for a new board.
func randomWords(n int) []string {
	if n > len(wordlist) {
		n = len(wordlist)
	}

	out := make([]string, 0, n)
	for _, i := range rand.Perm(len(wordlist))[:n] {
		out = append(out, wordlist[i])
	}

	return out
}
