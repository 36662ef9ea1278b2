package utils

import (
	"golang.org/x/exp/constraints"
)

func Max[T constraints.Integer | constraints.Float](a, b T) (out T) {
	if a > b {
		return a
	}
	return b
}

func Min[T constraints.Integer | constraints.Float](a, b T) (out T) {
	if a < b {
		return a
	}
	return b
}
