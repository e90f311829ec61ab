package common

// IDTokenHeaderName is the HTTP header that carries the caller's access
// token when the Authorization header is not used.
const IDTokenHeaderName = "id-token"

// WeiDecimals is the number of decimal places between wei and ether.
const WeiDecimals = 18
