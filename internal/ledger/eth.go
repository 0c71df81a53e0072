package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// registryABI matches the deployed certificate-registry contract.
const registryABI = `[
  {"type":"function","name":"issueCertificate","stateMutability":"nonpayable","inputs":[
    {"name":"_certificateHash","type":"string"},
    {"name":"_enrollmentNumber","type":"string"},
    {"name":"_studentName","type":"string"},
    {"name":"_course","type":"string"},
    {"name":"_institution","type":"string"},
    {"name":"_issueYear","type":"uint256"},
    {"name":"_ipfsHash","type":"string"}],"outputs":[]},
  {"type":"function","name":"verifyCertificateView","stateMutability":"view","inputs":[
    {"name":"_certificateHash","type":"string"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getCertificate","stateMutability":"view","inputs":[
    {"name":"_certificateHash","type":"string"}],"outputs":[
    {"name":"studentName","type":"string"},
    {"name":"enrollmentNumber","type":"string"},
    {"name":"course","type":"string"},
    {"name":"institution","type":"string"},
    {"name":"issueYear","type":"uint256"},
    {"name":"issueDate","type":"uint256"},
    {"name":"ipfsHash","type":"string"},
    {"name":"issuerAddress","type":"address"}]},
  {"type":"function","name":"admin","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
]`

// EthClient implements Client against an Ethereum JSON-RPC node.
type EthClient struct {
	eth        *ethclient.Client
	contract   *bind.BoundContract
	signerAddr common.Address
	opts       *bind.TransactOpts
}

// DialEth connects to the node, binds the registry contract and prepares the
// issuer signer. privateKeyHex has no 0x prefix.
func DialEth(rpcURL, contractAddr, privateKeyHex string) (*EthClient, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial ledger node: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, fmt.Errorf("parse registry abi: %w", err)
	}
	addr := common.HexToAddress(contractAddr)
	contract := bind.NewBoundContract(addr, parsed, eth, eth, eth)

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse issuer key: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	chainID, err := eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read chain id: %w", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}

	return &EthClient{
		eth:        eth,
		contract:   contract,
		signerAddr: crypto.PubkeyToAddress(key.PublicKey),
		opts:       opts,
	}, nil
}

func (c *EthClient) Issue(ctx context.Context, fingerprint string, fields CredentialFields) (IssueResult, error) {
	// The contract only accepts writes from the admin key. Checking up front
	// turns a confusing revert into a typed failure.
	var adminOut []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &adminOut, "admin"); err != nil {
		return IssueResult{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if len(adminOut) == 1 {
		if admin, ok := adminOut[0].(common.Address); ok && admin != c.signerAddr {
			return IssueResult{}, ErrUnauthorizedSigner
		}
	}

	opts := *c.opts
	opts.Context = ctx
	tx, err := c.contract.Transact(&opts, "issueCertificate",
		fingerprint,
		fields.EnrollmentNumber,
		fields.StudentName,
		fields.Program,
		fields.Institution,
		big.NewInt(int64(fields.IssueYear)),
		fields.IPFSHash,
	)
	if err != nil {
		return IssueResult{}, classifySubmitError(err)
	}

	// Confirmation can take seconds; the caller's ctx bounds the wait.
	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return IssueResult{}, fmt.Errorf("%w: waiting for confirmation: %v", ErrUnreachable, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return IssueResult{}, fmt.Errorf("%w: transaction %s reverted", ErrRejected, tx.Hash().Hex())
	}

	return IssueResult{
		TxHash:      tx.Hash().Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
	}, nil
}

func (c *EthClient) Verify(ctx context.Context, fingerprint string) (bool, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "verifyCertificateView", fingerprint)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if len(out) != 1 {
		return false, fmt.Errorf("%w: unexpected verify output", ErrUnreachable)
	}
	valid, _ := out[0].(bool)
	return valid, nil
}

func (c *EthClient) Fetch(ctx context.Context, fingerprint string) (CredentialFields, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getCertificate", fingerprint)
	if err != nil {
		return CredentialFields{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if len(out) != 8 {
		return CredentialFields{}, fmt.Errorf("%w: unexpected getCertificate output", ErrUnreachable)
	}

	fields := CredentialFields{
		StudentName:      out[0].(string),
		EnrollmentNumber: out[1].(string),
		Program:          out[2].(string),
		Institution:      out[3].(string),
		IPFSHash:         out[6].(string),
	}
	if fields.StudentName == "" && fields.EnrollmentNumber == "" {
		// Missing entries come back as zero values, not a revert.
		return CredentialFields{}, ErrNotFound
	}
	if year, ok := out[4].(*big.Int); ok {
		fields.IssueYear = int(year.Int64())
	}
	if issued, ok := out[5].(*big.Int); ok && issued.Sign() > 0 {
		fields.IssueDate = time.Unix(issued.Int64(), 0).UTC()
	}
	if issuer, ok := out[7].(common.Address); ok {
		fields.IssuerAddress = issuer.Hex()
	}
	return fields, nil
}

// classifySubmitError separates a node that processed and declined the
// transaction from one that could not be reached. Only anchored node-side
// messages count as rejection; anything ambiguous (including transport
// failures that happen to mention gas estimation) reports unreachable so the
// caller knows a retry is safe.
func classifySubmitError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "execution reverted"),
		strings.Contains(msg, "nonce too low"),
		strings.Contains(msg, "replacement transaction underpriced"),
		strings.Contains(msg, "insufficient funds"):
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}
