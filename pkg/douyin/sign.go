package douyin

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
)

// LocalSigner is a deterministic stand-in for the platform's request
// signing service: it derives the token from the encoded parameters
// and the client identity, so identical requests always carry the same
// token. Deployments that front a real signing endpoint swap it out
// through the Signer interface.
type LocalSigner struct{}

// Sign derives the request token
func (LocalSigner) Sign(params url.Values, userAgent string) (string, error) {
	sum := md5.Sum([]byte(params.Encode() + "|" + userAgent))
	return hex.EncodeToString(sum[:]), nil
}
