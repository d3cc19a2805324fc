// Package ingest loads document text from plain-text and HTML files, web
// pages and standard input.
package ingest
