// Package smartsheet fetches sheets from the Smartsheet REST API.
// One GET per sheet returns its current column definitions and row
// set; an optional rowsModifiedSince parameter restricts the response
// to rows changed since the cursor.
package smartsheet
