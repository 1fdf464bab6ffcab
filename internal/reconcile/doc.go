// Package reconcile estimates the USD price implied by a basket of assets.
//
// Settlement series for each asset are merged onto a common timestamp grid
// (Table). Each row is valued as price × basket weight per asset, and the row
// whose valuations disagree least, under a chosen dispersion Metric, is the
// best match. Its mean valuation is the implied price.
//
// Only rows with more than two valued assets are scored. Everything here is a
// pure function over its inputs.
package reconcile
