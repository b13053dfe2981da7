// Package domain models disaster reports and the enrichment attached to them.
//
// # Reports
//
// A report is one disaster-related text item from any feed: a USGS earthquake
// event, a GDACS RSS entry, a social post, or a citizen submission. The
// upstream collectors publish each item as flat JSON to the Kafka source
// topic. Reports are deduplicated on the (external id, source) pair: the same
// external event re-ingested from the same source updates the stored record
// instead of duplicating it. Feeds that supply no external id get a
// deterministic SHA-256 key derived from source and text, which keeps
// reprocessing replay-safe.
//
// # Enrichment
//
// Enrichment derives structured fields from the raw text:
//
//	language        ISO 639-1 code, or absent when the text is too short or
//	                detection has no confident answer
//	disaster_type   one of the closed set earthquake, flood, fire, storm,
//	                drought, landslide, volcano, tsunami, pandemic, conflict,
//	                unknown
//	place_name      extracted location string, or absent
//	lat/lon         WGS-84 coordinates, either supplied by the source or
//	                geocoded from the extracted place name
//	credibility     a [0,1] trust estimate plus needs_review / suspected_rumor
//	                flags
//
// Every stage degrades to an absent field rather than failing the report;
// partial enrichment is the steady state, not an error. The only per-report
// input error is empty text.
//
// # Coordinate precedence
//
// Coordinates carried by the source record (GPS-tagged citizen reports,
// seismic feeds) are authoritative. Geocoding only fills coordinates that are
// missing; it never overwrites explicit input.
//
// # Disaster type order
//
// Keyword classification scans the types in declaration order and the first
// type with any keyword hit wins. Text mentioning both an earthquake and the
// flooding it caused classifies as earthquake. The order is data, not control
// flow; see the rule table in the enrich package.
package domain
