package verification

import (
	"crypto/rand"
	"math/big"
)

const (
	otpMin           = 100000
	otpMax           = 999999
	approvalLength   = 6
	approvalAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateOTP returns a 6 digit code drawn uniformly from [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return big.NewInt(0).Add(n, big.NewInt(otpMin)).String(), nil
}

// GenerateApprovalCode returns 6 characters from [A-Z0-9].
func GenerateApprovalCode() (string, error) {
	buf := make([]byte, approvalLength)
	size := big.NewInt(int64(len(approvalAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		buf[i] = approvalAlphabet[n.Int64()]
	}
	return string(buf), nil
}
