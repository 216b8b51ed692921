// Package ofx reads OFX/QFX bank and credit card statements into customer
// transactions for local feature engineering.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/Veraticus/finsight/internal/model"
	"github.com/aclindsa/ofxgo"
)

var severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)

// unclosedTagRegex matches opening SGML tags left without their closing
// bracket at end of line.
var unclosedTagRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)

var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

var genericNames = []string{
	"DEBIT",
	"CREDIT",
	"PURCHASE",
	"PAYMENT",
	"POS TRANSACTION",
	"CARD PURCHASE",
}

// Option configures a Parser.
type Option func(*Parser)

// WithCustomerID attributes every parsed transaction to id instead of the
// statement's account number.
func WithCustomerID(id string) Option {
	return func(p *Parser) {
		p.customerID = id
	}
}

// WithLogger sets the logger used for skipped statements.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// Parser converts OFX statements into transactions.
type Parser struct {
	logger     *slog.Logger
	customerID string
}

// NewParser creates a parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Statement is the decoded content of one OFX file.
type Statement struct {
	Accounts     []string
	Transactions []model.Transaction
}

// preprocess fixes formatting issues common in bank exports.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return unclosedTagRegex.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX file and returns its transactions.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	stmt, err := p.Parse(ctx, reader)
	if err != nil {
		return nil, err
	}
	return stmt.Transactions, nil
}

// Parse decodes an OFX/QFX file into its accounts and transactions.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) (*Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	stmt := &Statement{}
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		bank, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}
		bankStmts++
		account := string(bank.BankAcctFrom.AcctID)
		stmt.addAccount(account)
		if bank.BankTranList == nil {
			p.logger.Warn("Bank statement has no transaction list", "account", account)
			continue
		}
		for _, tx := range bank.BankTranList.Transactions {
			stmt.Transactions = append(stmt.Transactions, p.convert(tx, account, false))
		}
	}

	for _, msg := range resp.CreditCard {
		card, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			continue
		}
		ccStmts++
		account := string(card.CCAcctFrom.AcctID)
		stmt.addAccount(account)
		if card.BankTranList == nil {
			p.logger.Warn("Credit card statement has no transaction list", "account", account)
			continue
		}
		for _, tx := range card.BankTranList.Transactions {
			stmt.Transactions = append(stmt.Transactions, p.convert(tx, account, true))
		}
	}

	p.logger.Info("Parsed OFX file",
		"total_transactions", len(stmt.Transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return stmt, nil
}

func (s *Statement) addAccount(account string) {
	if account != "" && !slices.Contains(s.Accounts, account) {
		s.Accounts = append(s.Accounts, account)
	}
}

// convert maps an OFX transaction onto a customer transaction. Amounts keep
// the OFX sign: debits are negative, credits positive.
func (p *Parser) convert(ofxTx ofxgo.Transaction, account string, creditCard bool) model.Transaction {
	amount, _ := ofxTx.TrnAmt.Float64()
	trnType := strings.ToUpper(ofxTx.TrnType.String())

	customer := p.customerID
	if customer == "" {
		customer = account
	}

	tx := model.Transaction{
		TransactionID: string(ofxTx.FiTID),
		CustomerID:    customer,
		Date:          model.NewTimestamp(ofxTx.DtPosted.Time),
		Merchant:      merchantName(ofxTx),
		Description:   strings.TrimSpace(string(ofxTx.Memo)),
		Amount:        amount,
		Category:      categoryFor(trnType, amount),
		PaymentMethod: paymentMode(trnType, creditCard),
	}
	if tx.TransactionID == "" {
		tx.TransactionID = tx.GenerateID()
	}

	return tx
}

func categoryFor(trnType string, amount float64) model.Category {
	switch trnType {
	case "INT", "DIV", "DIRECTDEP", "DEP":
		return model.CategoryIncome
	case "FEE", "SRVCHG", "ATM", "CASH":
		return model.CategoryBanking
	}
	if amount > 0 && trnType == "CREDIT" {
		return model.CategoryIncome
	}
	return ""
}

func paymentMode(trnType string, creditCard bool) model.PaymentMode {
	if creditCard {
		return model.ModeCreditCard
	}
	switch trnType {
	case "CHECK":
		return model.ModeCheck
	case "ATM", "CASH":
		return model.ModeCash
	case "POS":
		return model.ModeDebitCard
	default:
		return model.ModeBankTransfer
	}
}

// merchantName extracts a clean merchant name, preferring PAYEE, then NAME,
// then MEMO when NAME is generic.
func merchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGeneric(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGeneric(name string) bool {
	return slices.Contains(genericNames, strings.ToUpper(strings.TrimSpace(name)))
}
