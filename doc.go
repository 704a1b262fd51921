// Package valuation reconstructs the value of an investment portfolio over time
// from a ledger of historical trades and independently sourced price and
// foreign exchange series.
//
// A valuation run goes through four stages:
//   - Calendar: the ordered set of valuation dates, from the earliest trade to
//     today, daily, weekly or on month starts.
//   - Alignment: raw, sparse price and forex series are joined onto the
//     calendar. Gaps are filled with zero (or the last known value if asked).
//     A symbol without data is dropped, it never aborts the run.
//   - Accrual: every trade contributes its signed quantity, marked at each
//     date's price and converted to the base currency, from its trade date on.
//     Contributions add up into the holdings series. An optional benchmark
//     series replays the same cash flows into a single instrument.
//   - Analytics: period returns, rolling means and normalized views of any
//     value series.
//
// The package does no I/O. Fetching prices, reading ledgers and rendering
// reports is done by the feed, pricedb and renderer packages.
package valuation
