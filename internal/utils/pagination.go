// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampPage parses raw page and page size values, defaulting to page 1 and
// defSize, and bounds the size to [1, maxSize].
func ClampPage(rawPage, rawSize string, defSize, maxSize int) (page, size int) {
	page = AtoiDefault(rawPage, 1)
	if page < 1 {
		page = 1
	}
	size = AtoiDefault(rawSize, defSize)
	if size < 1 {
		size = 1
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}
	return page, size
}

// Window returns the [start, end) slice bounds of page within total items
// and the number of pages. Pages past the end yield an empty window.
func Window(total, page, size int) (start, end, pages int) {
	if size < 1 {
		size = 1
	}
	pages = (total + size - 1) / size
	start = (page - 1) * size
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end = start + size
	if end > total {
		end = total
	}
	return start, end, pages
}
