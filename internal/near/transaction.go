package near

import (
	"fmt"
	"math/big"

	"github.com/near/borsh-go"

	"github.com/uncle-T0ny/nearmarket/internal/models"
)

// Transaction is the NEAR transaction wire form, serialized with borsh.
type Transaction struct {
	SignerID   string
	PublicKey  models.PublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [32]byte
	Actions    []Action
}

// Action variant indexes fixed by the NEAR protocol schema.
const (
	actionCreateAccount borsh.Enum = iota
	actionDeployContract
	actionFunctionCall
	actionTransfer
	actionStake
	actionAddKey
	actionDeleteKey
	actionDeleteAccount
)

// Action is the borsh enum of transaction actions. Only FunctionCall is
// ever produced here; the other variants exist to keep the enum indexes
// aligned with the protocol schema.
type Action struct {
	Enum           borsh.Enum `borsh_enum:"true"`
	CreateAccount  struct{}
	DeployContract struct{}
	FunctionCall   FunctionCall
	Transfer       struct{}
	Stake          struct{}
	AddKey         struct{}
	DeleteKey      struct{}
	DeleteAccount  struct{}
}

// FunctionCall invokes a contract method with JSON arguments, a gas budget
// and an attached deposit in yoctoNEAR (u128).
type FunctionCall struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    big.Int
}

func functionCallAction(method string, args []byte, gas uint64, deposit *big.Int) Action {
	return Action{
		Enum: actionFunctionCall,
		FunctionCall: FunctionCall{
			MethodName: method,
			Args:       args,
			Gas:        gas,
			Deposit:    *deposit,
		},
	}
}

func newTransaction(session models.Session, receiver string, nonce uint64, blockHash [32]byte, actions []Action) Transaction {
	return Transaction{
		SignerID:   session.AccountID,
		PublicKey:  session.PublicKey,
		Nonce:      nonce,
		ReceiverID: receiver,
		BlockHash:  blockHash,
		Actions:    actions,
	}
}

// Serialize produces the borsh wire bytes of the transaction.
func (t Transaction) Serialize() ([]byte, error) {
	data, err := borsh.Serialize(t)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return data, nil
}

func parseYocto(amount string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(amount, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid yocto amount %q", amount)
	}
	return v, nil
}
