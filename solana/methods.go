package solana

import "github.com/space-operator/space-go/fetch"

// GetAccountInfo returns the account at pubkey.
func (c *Client) GetAccountInfo(pubkey string) (*fetch.Response, error) {
	return c.Call("getAccountInfo", pubkey)
}

// GetBalance returns the lamport balance of pubkey.
func (c *Client) GetBalance(pubkey string) (*fetch.Response, error) {
	return c.Call("getBalance", pubkey)
}

// GetBlock returns the block at slot.
func (c *Client) GetBlock(slot uint64) (*fetch.Response, error) {
	return c.Call("getBlock", slot)
}

// GetBlockHeight calls getBlockHeight.
func (c *Client) GetBlockHeight() (*fetch.Response, error) {
	return c.Call("getBlockHeight")
}

// GetBlockProduction calls getBlockProduction.
func (c *Client) GetBlockProduction() (*fetch.Response, error) {
	return c.Call("getBlockProduction")
}

// GetBlockCommitment calls getBlockCommitment.
func (c *Client) GetBlockCommitment(slot uint64) (*fetch.Response, error) {
	return c.Call("getBlockCommitment", slot)
}

// GetBlocks lists confirmed blocks from startSlot. A nil endSlot is sent as null.
func (c *Client) GetBlocks(startSlot uint64, endSlot *uint64) (*fetch.Response, error) {
	return c.Call("getBlocks", startSlot, endSlot)
}

// GetBlocksWithLimit calls getBlocksWithLimit.
func (c *Client) GetBlocksWithLimit(startSlot, limit uint64) (*fetch.Response, error) {
	return c.Call("getBlocksWithLimit", startSlot, limit)
}

// GetBlockTime calls getBlockTime.
func (c *Client) GetBlockTime(slot uint64) (*fetch.Response, error) {
	return c.Call("getBlockTime", slot)
}

// GetClusterNodes calls getClusterNodes.
func (c *Client) GetClusterNodes() (*fetch.Response, error) {
	return c.Call("getClusterNodes")
}

// GetEpochInfo calls getEpochInfo.
func (c *Client) GetEpochInfo() (*fetch.Response, error) {
	return c.Call("getEpochInfo")
}

// GetEpochSchedule calls getEpochSchedule.
func (c *Client) GetEpochSchedule() (*fetch.Response, error) {
	return c.Call("getEpochSchedule")
}

// GetFeeForMessage calls getFeeForMessage.
func (c *Client) GetFeeForMessage(message string) (*fetch.Response, error) {
	return c.Call("getFeeForMessage", message)
}

// GetFirstAvailableBlock calls getFirstAvailableBlock.
func (c *Client) GetFirstAvailableBlock() (*fetch.Response, error) {
	return c.Call("getFirstAvailableBlock")
}

// GetGenesisHash calls getGenesisHash.
func (c *Client) GetGenesisHash() (*fetch.Response, error) {
	return c.Call("getGenesisHash")
}

// GetHealth calls getHealth.
func (c *Client) GetHealth() (*fetch.Response, error) {
	return c.Call("getHealth")
}

// GetHighestSnapshotSlot calls getHighestSnapshotSlot.
func (c *Client) GetHighestSnapshotSlot() (*fetch.Response, error) {
	return c.Call("getHighestSnapshotSlot")
}

// GetIdentity calls getIdentity.
func (c *Client) GetIdentity() (*fetch.Response, error) {
	return c.Call("getIdentity")
}

// GetInflationGovernor calls getInflationGovernor.
func (c *Client) GetInflationGovernor() (*fetch.Response, error) {
	return c.Call("getInflationGovernor")
}

// GetInflationRate calls getInflationRate.
func (c *Client) GetInflationRate() (*fetch.Response, error) {
	return c.Call("getInflationRate")
}

// GetInflationReward calls getInflationReward.
func (c *Client) GetInflationReward(pubkeys []string) (*fetch.Response, error) {
	return c.Call("getInflationReward", pubkeys)
}

// GetLargestAccounts calls getLargestAccounts.
func (c *Client) GetLargestAccounts() (*fetch.Response, error) {
	return c.Call("getLargestAccounts")
}

// GetLatestBlockhash returns a recent blockhash; decode it with Result[LatestBlockhash].
func (c *Client) GetLatestBlockhash() (*fetch.Response, error) {
	return c.Call("getLatestBlockhash")
}

// GetLeaderSchedule calls getLeaderSchedule.
func (c *Client) GetLeaderSchedule() (*fetch.Response, error) {
	return c.Call("getLeaderSchedule")
}

// GetMaxRetransmitSlot calls getMaxRetransmitSlot.
func (c *Client) GetMaxRetransmitSlot() (*fetch.Response, error) {
	return c.Call("getMaxRetransmitSlot")
}

// GetMaxShredInsertSlot calls getMaxShredInsertSlot.
func (c *Client) GetMaxShredInsertSlot() (*fetch.Response, error) {
	return c.Call("getMaxShredInsertSlot")
}

// GetMinimumBalanceForRentExemption calls getMinimumBalanceForRentExemption.
func (c *Client) GetMinimumBalanceForRentExemption(dataLen uint64) (*fetch.Response, error) {
	return c.Call("getMinimumBalanceForRentExemption", dataLen)
}

// GetMultipleAccounts calls getMultipleAccounts.
func (c *Client) GetMultipleAccounts(pubkeys []string) (*fetch.Response, error) {
	return c.Call("getMultipleAccounts", pubkeys)
}

// GetProgramAccounts calls getProgramAccounts.
func (c *Client) GetProgramAccounts(program string) (*fetch.Response, error) {
	return c.Call("getProgramAccounts", program)
}

// GetRecentPerformanceSamples calls getRecentPerformanceSamples.
func (c *Client) GetRecentPerformanceSamples() (*fetch.Response, error) {
	return c.Call("getRecentPerformanceSamples")
}

// GetSignaturesForAddress calls getSignaturesForAddress.
func (c *Client) GetSignaturesForAddress(address string) (*fetch.Response, error) {
	return c.Call("getSignaturesForAddress", address)
}

// GetSignatureStatuses calls getSignatureStatuses.
func (c *Client) GetSignatureStatuses(signatures []string) (*fetch.Response, error) {
	return c.Call("getSignatureStatuses", signatures)
}

// GetSlot calls getSlot.
func (c *Client) GetSlot() (*fetch.Response, error) {
	return c.Call("getSlot")
}

// GetSlotLeader calls getSlotLeader.
func (c *Client) GetSlotLeader() (*fetch.Response, error) {
	return c.Call("getSlotLeader")
}

// GetSlotLeaders calls getSlotLeaders.
func (c *Client) GetSlotLeaders(startSlot, limit uint64) (*fetch.Response, error) {
	return c.Call("getSlotLeaders", startSlot, limit)
}

// GetStakeActivation calls getStakeActivation.
func (c *Client) GetStakeActivation(pubkey string) (*fetch.Response, error) {
	return c.Call("getStakeActivation", pubkey)
}

// GetStakeMinimumDelegation calls getStakeMinimumDelegation.
func (c *Client) GetStakeMinimumDelegation() (*fetch.Response, error) {
	return c.Call("getStakeMinimumDelegation")
}

// GetSupply calls getSupply.
func (c *Client) GetSupply() (*fetch.Response, error) {
	return c.Call("getSupply")
}

// GetTokenAccountBalance calls getTokenAccountBalance.
func (c *Client) GetTokenAccountBalance(pubkey string) (*fetch.Response, error) {
	return c.Call("getTokenAccountBalance", pubkey)
}

// GetTokenAccountsByDelegateMint lists token accounts delegated to delegate for one mint.
func (c *Client) GetTokenAccountsByDelegateMint(delegate, mint string) (*fetch.Response, error) {
	return c.Call("getTokenAccountsByDelegate", delegate, map[string]string{"mint": mint})
}

// GetTokenAccountsByDelegateProgram calls getTokenAccountsByDelegate.
func (c *Client) GetTokenAccountsByDelegateProgram(delegate, program string) (*fetch.Response, error) {
	return c.Call("getTokenAccountsByDelegate", delegate, map[string]string{"programId": program})
}

// GetTokenAccountsByOwnerMint lists the token accounts of owner for one mint.
func (c *Client) GetTokenAccountsByOwnerMint(owner, mint string) (*fetch.Response, error) {
	return c.Call("getTokenAccountsByOwner", owner, map[string]string{"mint": mint})
}

// GetTokenAccountsByOwnerProgram calls getTokenAccountsByOwner.
func (c *Client) GetTokenAccountsByOwnerProgram(owner, program string) (*fetch.Response, error) {
	return c.Call("getTokenAccountsByOwner", owner, map[string]string{"programId": program})
}

// GetTokenLargestAccounts calls getTokenLargestAccounts.
func (c *Client) GetTokenLargestAccounts(mint string) (*fetch.Response, error) {
	return c.Call("getTokenLargestAccounts", mint)
}

// GetTokenSupply calls getTokenSupply.
func (c *Client) GetTokenSupply(mint string) (*fetch.Response, error) {
	return c.Call("getTokenSupply", mint)
}

// GetTransaction calls getTransaction.
func (c *Client) GetTransaction(signature string) (*fetch.Response, error) {
	return c.Call("getTransaction", signature)
}

// GetTransactionCount calls getTransactionCount.
func (c *Client) GetTransactionCount() (*fetch.Response, error) {
	return c.Call("getTransactionCount")
}

// GetVoteAccounts calls getVoteAccounts.
func (c *Client) GetVoteAccounts() (*fetch.Response, error) {
	return c.Call("getVoteAccounts")
}

// IsBlockhashValid calls isBlockhashValid.
func (c *Client) IsBlockhashValid(blockhash string) (*fetch.Response, error) {
	return c.Call("isBlockhashValid", blockhash)
}

// MinimumLedgerSlot calls minimumLedgerSlot.
func (c *Client) MinimumLedgerSlot() (*fetch.Response, error) {
	return c.Call("minimumLedgerSlot")
}

// RequestAirdrop asks a test cluster to send lamports to pubkey.
func (c *Client) RequestAirdrop(pubkey string, lamports uint64) (*fetch.Response, error) {
	return c.Call("requestAirdrop", pubkey, lamports)
}

// SendTransaction submits a signed, encoded transaction.
func (c *Client) SendTransaction(transaction string) (*fetch.Response, error) {
	return c.Call("sendTransaction", transaction)
}

// SimulateTransaction calls simulateTransaction.
func (c *Client) SimulateTransaction(transaction string) (*fetch.Response, error) {
	return c.Call("simulateTransaction", transaction)
}
