// Package sanitize provides destructive string-to-identifier encodings.
//
// The helpers here turn arbitrary strings (URLs, target identifiers) into
// names that are safe to use as file names or flat keyword values. The
// encodings are one-way: characters outside the safe set are dropped or
// replaced, so the result cannot be decoded back into the original.
//
// Usage:
//
//	sanitize.FileName("https://ttbd.example.com:5000") // "httpsttbd.example.com5000"
//	sanitize.Name("server a/target 1")                 // "server_a_target_1"
package sanitize
