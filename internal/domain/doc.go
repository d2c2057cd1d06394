// Package domain models field-inspection work orders and the weather data
// attached to the zip codes those work orders live in.
//
// # Work Orders
//
// A work order is a JSON document persisted in the document store under a
// UUID id. It records who added it, who it is assigned to, and where the
// inspection takes place. When an order is marked finished without an
// inspection date, the date is stamped from the package clock (see [Now]).
//
// # Zip Coordinates
//
// Weather alerts are looked up by latitude/longitude, but callers work in zip
// codes. Resolved coordinates are cached as [ZipCoordinate] documents with id
// "zip" + zip code. Coordinates are kept as decimal strings exactly as the
// weather service returned them:
//
//	{"_id": "zip10001", "zip": "10001", "latitude": "40.75", "longitude": "-73.99"}
//
// Coordinate documents are created once and never updated.
//
// # Batch Results
//
// A [BatchResult] maps each resolved zip code to its alert summaries. The
// value distinguishes two cases that look alike on the wire:
//
//	"10001": []                                   weather service reported alerts, none active
//	"10001": [{"severity":...,"headline":...}]    active alerts, in service order
//	"10001": null                                 weather service reported no alerts for the location
//
// Zip codes that could not be resolved or whose alert lookup failed have no
// key at all.
package domain
