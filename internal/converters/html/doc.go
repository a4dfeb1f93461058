// Package html provides a Converter for HTML documents.
// It maps headings, lists, links and emphasis onto markdown and strips
// everything else, dropping scripts, styles and comments entirely.
package html
