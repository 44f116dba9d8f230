// Package multisig implements the recursive multi-signature authorization
// service: accounts with weights, a weighted threshold, and an owner, where
// any account may itself be another multi-sig address, verified by
// depth-bounded recursion.
package multisig

import "synnergy-execcore/core"

// MaxRecursionDepth bounds how many levels of "account is itself a
// multi-sig address" verification may recurse before a permission graph is
// rejected. There is deliberately no cycle detection beyond this bound: a
// cyclic graph simply exhausts the depth budget and fails closed.
const MaxRecursionDepth = 8

// MaxPermissionAccounts bounds how many accounts a single MultiSigPermission
// may list.
const MaxPermissionAccounts = 16

// Account is one entry in a MultiSigPermission's account list. IsMultiple
// marks that Address is itself another multi-sig account rather than a
// single keypair, so its signature requirement is satisfied recursively.
type Account struct {
	Address    core.Address `json:"address"`
	Weight     uint8        `json:"weight"`
	IsMultiple bool         `json:"is_multiple"`
}

// MultiSigPermission is the on-chain record for one multi-sig address: its
// member accounts, the weighted threshold a witness set must clear, an
// owner address authorized to mutate the record, and a free-form memo.
type MultiSigPermission struct {
	Accounts  []Account    `json:"accounts"`
	Owner     core.Address `json:"owner"`
	Threshold uint32       `json:"threshold"`
	Memo      string       `json:"memo"`
}

func (p *MultiSigPermission) weightSum() uint32 {
	var sum uint32
	for _, a := range p.Accounts {
		sum += uint32(a.Weight)
	}
	return sum
}

func (p *MultiSigPermission) indexOf(addr core.Address) int {
	for i, a := range p.Accounts {
		if a.Address == addr {
			return i
		}
	}
	return -1
}

func (p *MultiSigPermission) SetOwner(addr core.Address) { p.Owner = addr }

func (p *MultiSigPermission) SetMemo(memo string) { p.Memo = memo }

func (p *MultiSigPermission) SetThreshold(threshold uint32) { p.Threshold = threshold }

func (p *MultiSigPermission) AddAccount(acc Account) {
	p.Accounts = append(p.Accounts, acc)
}

// RemoveResult is the outcome of MultiSigPermission.RemoveAccount.
type RemoveResult int

const (
	RemoveNotFound RemoveResult = iota
	RemoveBelowThreshold
	RemoveSuccess
)

// RemoveAccount removes addr from the account list unless doing so would
// drop the remaining weight sum below the threshold, in which case the
// permission is left untouched.
func (p *MultiSigPermission) RemoveAccount(addr core.Address) (Account, RemoveResult) {
	idx := p.indexOf(addr)
	if idx < 0 {
		return Account{}, RemoveNotFound
	}
	removed := p.Accounts[idx]
	remaining := p.weightSum() - uint32(removed.Weight)
	if remaining < p.Threshold {
		return Account{}, RemoveBelowThreshold
	}
	p.Accounts = append(p.Accounts[:idx], p.Accounts[idx+1:]...)
	return removed, RemoveSuccess
}

// SetWeightResult is the outcome of MultiSigPermission.SetAccountWeight.
type SetWeightResult int

const (
	SetWeightNotFound SetWeightResult = iota
	SetWeightInvalid
	SetWeightSuccess
)

// SetAccountWeight updates addr's weight unless doing so would drop the
// account list's weight sum below the threshold.
func (p *MultiSigPermission) SetAccountWeight(addr core.Address, newWeight uint8) SetWeightResult {
	idx := p.indexOf(addr)
	if idx < 0 {
		return SetWeightNotFound
	}
	sum := p.weightSum() - uint32(p.Accounts[idx].Weight) + uint32(newWeight)
	if sum < p.Threshold {
		return SetWeightInvalid
	}
	p.Accounts[idx].Weight = newWeight
	return SetWeightSuccess
}

// Witness is a caller-supplied signature bundle authorizing a mutating
// call: one pubkey/signature pair per contributing account, attributed to
// sender (the multi-sig address — or single account — being authorized
// against).
type Witness struct {
	TxHash     core.Hash    `json:"tx_hash"`
	PubKeys    [][]byte     `json:"pubkeys"`
	Signatures [][]byte     `json:"signatures"`
	Sender     core.Address `json:"sender"`
}

// Payload types for each write/read endpoint. All are JSON-decoded from a
// ServiceContext's payload string.

type AddrWeight struct {
	Address core.Address `json:"address"`
	Weight  uint8        `json:"weight"`
}

type InitGenesisPayload struct {
	Address        core.Address `json:"address"`
	Owner          core.Address `json:"owner"`
	AddrWithWeight []AddrWeight `json:"addr_with_weight"`
	Threshold      uint32       `json:"threshold"`
	Memo           string       `json:"memo"`
}

type GenerateMultiSigAccountPayload struct {
	Owner          core.Address `json:"owner"`
	AddrWithWeight []AddrWeight `json:"addr_with_weight"`
	Threshold      uint32       `json:"threshold"`
	Memo           string       `json:"memo"`
}

type GenerateMultiSigAccountResponse struct {
	Address core.Address `json:"address"`
}

type GetMultiSigAccountPayload struct {
	MultiSigAddress core.Address `json:"multi_sig_address"`
}

type GetMultiSigAccountResponse struct {
	Permission MultiSigPermission `json:"permission"`
}

type ChangeOwnerPayload struct {
	Witness         Witness      `json:"witness"`
	MultiSigAddress core.Address `json:"multi_sig_address"`
	NewOwner        core.Address `json:"new_owner"`
}

type ChangeMemoPayload struct {
	Witness         Witness      `json:"witness"`
	MultiSigAddress core.Address `json:"multi_sig_address"`
	NewMemo         string       `json:"new_memo"`
}

type AddAccountPayload struct {
	Witness         Witness      `json:"witness"`
	MultiSigAddress core.Address `json:"multi_sig_address"`
	NewAccount      Account      `json:"new_account"`
}

type RemoveAccountPayload struct {
	Witness         Witness      `json:"witness"`
	MultiSigAddress core.Address `json:"multi_sig_address"`
	AccountAddress  core.Address `json:"account_address"`
}

type SetAccountWeightPayload struct {
	Witness         Witness      `json:"witness"`
	MultiSigAddress core.Address `json:"multi_sig_address"`
	AccountAddress  core.Address `json:"account_address"`
	NewWeight       uint8        `json:"new_weight"`
}

type SetThresholdPayload struct {
	Witness         Witness      `json:"witness"`
	MultiSigAddress core.Address `json:"multi_sig_address"`
	NewThreshold    uint32       `json:"new_threshold"`
}

// VerifySignaturePayload is the normalized input to the recursive verifier:
// a flat witness list plus the sender address the witnesses are verified
// against (possibly itself a nested multi-sig account).
type VerifySignaturePayload struct {
	TxHash     core.Hash
	PubKeys    [][]byte
	Signatures [][]byte
	Sender     core.Address
}
