package snapshot

import "jediswap-analytics/internal/domain"

const tokenFields = `
    tokenAddress
    name
    symbol
    volume
    volumeUSD
    untrackedVolumeUSD
    feesUSD
    totalValueLocked
    totalValueLockedUSD
    txCount`

const tokensDataQuery = `
query tokensData($ids: [String!]!, $periods: [String!]!, $first: Int!) {
  tokensData(first: $first, where: {tokenAddressIn: $ids, periodIn: $periods}) {
    token {` + tokenFields + `
    }
    period
  }
}`

const poolsDataQuery = `
query poolsData($ids: [String!]!, $periods: [String!]!, $first: Int!) {
  poolsData(first: $first, where: {poolAddressIn: $ids, periodIn: $periods}) {
    pool {
      poolAddress
      fee
      txCount
      volumeUSD
      feesUSD
      totalValueLockedUSD
      totalValueLockedETH
      token0Price
      token1Price
      token0 { tokenAddress symbol name }
      token1 { tokenAddress symbol name }
    }
    period
  }
}`

const factoriesDataQuery = `
query factoriesData($ids: [String!]!, $periods: [String!]!, $first: Int!) {
  factoriesData(first: $first, where: {factoryAddressIn: $ids, periodIn: $periods}) {
    factory {
      factoryAddress
      totalVolumeUSD
      totalFeesUSD
      totalValueLockedUSD
      txCount
    }
    period
  }
}`

const tokenSearchQuery = `
query tokenSearch($value: String, $id: String) {
  asSymbol: tokens(where: {symbolContains: $value}, orderBy: "total_value_locked_usd", orderByDirection: "desc") { tokenAddress }
  asName: tokens(where: {nameContains: $value}, orderBy: "total_value_locked_usd", orderByDirection: "desc") { tokenAddress }
  asAddress: tokens(where: {tokenAddress: $id}) { tokenAddress }
}`

const poolSearchQuery = `
query poolSearch($tokens: [String!], $id: String) {
  as0: pools(where: {token0In: $tokens}) { poolAddress }
  as1: pools(where: {token1In: $tokens}) { poolAddress }
  asAddress: pools(where: {poolAddress: $id}) { poolAddress }
}`

// kindQuery maps a kind to its bulk document and the response field that
// holds the rows.
var kindQuery = map[domain.EntityKind]struct {
	document string
	field    string
}{
	domain.KindToken:   {tokensDataQuery, "tokensData"},
	domain.KindPool:    {poolsDataQuery, "poolsData"},
	domain.KindFactory: {factoriesDataQuery, "factoriesData"},
}
