// Package normalisers transforms raw fetched rows into flat
// destination records, resolving internal column IDs to column names.
package normalisers
