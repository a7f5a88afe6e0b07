// Package domain models KMA (Korea Meteorological Administration) forecast
// data and fuses it into one daily series per location.
//
// # Data Sources
//
// Three products from the public data portal (apis.data.go.kr/1360000) feed
// the service:
//
//	Short-range village forecast (getVilageFcst): hourly records on the 5 km
//	grid for roughly today through today+3.
//	Ultra-short-range nowcast (getUltraSrtNcst): the latest observation on
//	the same grid.
//	Mid-range outlook (getMidLandFcst + getMidTa): per-region text and
//	temperature for days 3 to 10 after issuance.
//
// # Grid Addressing
//
// Grid products are addressed by (nx, ny) on a Lambert Conformal Conic
// projection (standard parallels 30°N/60°N, origin 126°E 38°N at cell
// (43, 136), 5 km spacing). See [ProjectGrid].
//
// # Broadcast Cadence
//
// All times are KST. Each query names the broadcast it wants:
//
//	Short-range: 02, 05, 08, 11, 14, 17, 20, 23h; queryable from +10 min.
//	Nowcast:     every hour; queryable from +10 min.
//	Outlook:     06h and 18h; queryable immediately.
//
// See [SlotAt]. When the newest short-range slot returns no items the
// fetch layer retries once against [BroadcastSlot.Previous].
//
// # Category Codes
//
//	SKY: 1 clear | 3 partly cloudy | 4 overcast
//	PTY: 0 none | 1 rain | 2 rain/snow | 3 snow | 4 shower |
//	     5 drizzle | 6 drizzle/snow flurry | 7 snow flurry
//	PCP: "강수없음" | "1mm 미만" | "1.0~29.9mm" | "30.0~50.0mm" | "50.0mm 이상"
//	SNO: "적설없음" | "0.5cm 미만" | "0.5~4.9cm" | "5.0cm 이상"
//
// Text buckets become an ordinal category plus a representative value: 0
// for "less than" buckets, the midpoint for closed ranges, and the lower
// bound plus 10% for "or more" buckets. Unrecognized codes and texts map to
// explicit unknown values and are logged, never rejected.
//
// Numeric values at or beyond ±900 are KMA missing-value sentinels and are
// treated as absent.
//
// # Fusion
//
// [AggregateDaily] turns hourly items into one record per date. [Fuse]
// merges those with the outlook over a contiguous [Window]; short-range
// records always win and only borrow missing temperatures from the outlook.
package domain
