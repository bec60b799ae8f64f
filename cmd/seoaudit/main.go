// Package main provides the seoaudit command line tool.
//
// Usage:
//
//	seoaudit analyze https://example.com/ [-o reports]
//	seoaudit compare reports
//	seoaudit history https://example.com/
package main

func main() {
	Execute()
}
