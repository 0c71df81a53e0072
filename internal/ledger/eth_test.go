package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySubmitError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "execution revert",
			err:  errors.New("execution reverted: certificate already issued"),
			want: ErrRejected,
		},
		{
			name: "stale nonce",
			err:  errors.New("nonce too low: next nonce 42, tx nonce 17"),
			want: ErrRejected,
		},
		{
			name: "unfunded signer",
			err:  errors.New("insufficient funds for gas * price + value"),
			want: ErrRejected,
		},
		{
			name: "underpriced replacement",
			err:  errors.New("replacement transaction underpriced"),
			want: ErrRejected,
		},
		{
			name: "connection refused",
			err:  errors.New("dial tcp 10.0.0.5:8545: connect: connection refused"),
			want: ErrUnreachable,
		},
		{
			name: "timeout while estimating gas",
			err:  errors.New("eth_estimateGas: context deadline exceeded"),
			want: ErrUnreachable,
		},
		{
			name: "nonce status read failure",
			err:  errors.New("eth_getTransactionCount: i/o timeout fetching nonce"),
			want: ErrUnreachable,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, classifySubmitError(tc.err), tc.want)
		})
	}
}
