// Package acl is the anti-corruption layer between quote vendors and the
// domain.
//
// Every vendor answers with its own JSON shape. A [domain.Vendor] carries one
// query per field, and [VendorClient] runs those queries against the response
// document to build a [domain.Quote]. Vendor JSON never leaves this package.
//
// # Field queries
//
// Queries are evaluated by a [QueryEngine]. The default, [JSONPathEngine],
// accepts RFC 9535 JSONPath as well as the dotted form used by most vendor
// configurations:
//
//	quote:  "$.contents.quotes[0].quote"
//	author: "0.a"
//
// [Extract] converts the first match to the requested Go type.
//
// # Error Handling
//
// Failures are reported as domain errors:
//   - Network failures and non-2xx statuses → [domain.ErrTransport]
//   - Unparsable bodies and missing or mistyped fields → [domain.ErrExtraction]
//   - Malformed endpoints → [domain.ErrConfig]
//
// Retrying is left to the caller.
package acl
