package util

import (
	"io"
	"os"

	"golang.org/x/exp/constraints"
)

func GetKeys[A constraints.Ordered, B any](m map[A]B) []A {
	keys := make([]A, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func OpenFileOrPanic(path string) *os.File {
	f, err := os.Open(path)
	if err != nil {
		panic("Couldn't read file: " + err.Error())
	}
	return f
}

func ReadAllOrPanic(r io.Reader) string {
	data, err := io.ReadAll(r)
	if err != nil {
		panic("Couldn't read input: " + err.Error())
	}
	return string(data)
}
