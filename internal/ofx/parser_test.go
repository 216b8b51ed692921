package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/finsight/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{
			name:          "valid bank statement",
			ofxData:       sampleBankOFX,
			expectedCount: 3,
		},
		{
			name:          "valid credit card statement",
			ofxData:       sampleCreditCardOFX,
			expectedCount: 2,
		},
		{
			name:          "leading blank lines",
			ofxData:       "\n\n  " + sampleCreditCardOFX,
			expectedCount: 2,
		},
		{
			name:          "invalid OFX data",
			ofxData:       "not valid OFX",
			expectedError: true,
		},
		{
			name:          "empty OFX",
			ofxData:       "",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser()

			transactions, err := parser.ParseFile(context.Background(), strings.NewReader(tt.ofxData))

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, transactions, tt.expectedCount)
		})
	}
}

func TestParseCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser().ParseFile(ctx, strings.NewReader(sampleBankOFX))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseBankTransactions(t *testing.T) {
	transactions, err := NewParser().ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	tx1 := transactions[0]
	assert.Equal(t, "2024011501", tx1.TransactionID)
	assert.Equal(t, "1234567890", tx1.CustomerID)
	assert.Equal(t, "STARBUCKS STORE #1234", tx1.Merchant)
	assert.InDelta(t, -25.50, tx1.Amount, 1e-9)
	assert.Equal(t, model.ModeBankTransfer, tx1.PaymentMethod)
	assert.Equal(t, 2024, tx1.Date.Year())
	assert.Equal(t, time.January, tx1.Date.Month())
	assert.Equal(t, 15, tx1.Date.Day())

	tx2 := transactions[1]
	assert.Equal(t, "2024012001", tx2.TransactionID)
	assert.Equal(t, "Whole Foods Market", tx2.Merchant)
	assert.InDelta(t, -125.00, tx2.Amount, 1e-9)

	tx3 := transactions[2]
	assert.Equal(t, "2024012501", tx3.TransactionID)
	assert.Equal(t, "CHECK #1234", tx3.Merchant)
	assert.InDelta(t, -500.00, tx3.Amount, 1e-9)
	assert.Equal(t, model.ModeCheck, tx3.PaymentMethod)
}

func TestParseCreditCardTransactions(t *testing.T) {
	parser := NewParser(WithCustomerID("CUST_000042"))

	stmt, err := parser.Parse(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, stmt.Transactions, 2)
	assert.Equal(t, []string{"4111111111111111"}, stmt.Accounts)

	tx1 := stmt.Transactions[0]
	assert.Equal(t, "CC2024011001", tx1.TransactionID)
	assert.Equal(t, "CUST_000042", tx1.CustomerID)
	assert.Equal(t, "AMAZON.COM*RT4Y7HG2", tx1.Merchant)
	assert.InDelta(t, -45.99, tx1.Amount, 1e-9)
	assert.Equal(t, model.ModeCreditCard, tx1.PaymentMethod)

	tx2 := stmt.Transactions[1]
	assert.Equal(t, "CC2024011501", tx2.TransactionID)
	assert.Equal(t, "NETFLIX.COM", tx2.Merchant)
	assert.InDelta(t, -15.00, tx2.Amount, 1e-9)
}

func TestMerchantName(t *testing.T) {
	tests := []struct {
		name     string
		tx       ofxgo.Transaction
		expected string
	}{
		{
			name:     "remove POS prefix",
			tx:       ofxgo.Transaction{Name: "POS PURCHASE STARBUCKS"},
			expected: "STARBUCKS",
		},
		{
			name:     "remove DEBIT CARD prefix",
			tx:       ofxgo.Transaction{Name: "DEBIT CARD PURCHASE WHOLE FOODS"},
			expected: "WHOLE FOODS",
		},
		{
			name:     "keep clean name",
			tx:       ofxgo.Transaction{Name: "NETFLIX.COM"},
			expected: "NETFLIX.COM",
		},
		{
			name:     "trim whitespace",
			tx:       ofxgo.Transaction{Name: "  AMAZON.COM  "},
			expected: "AMAZON.COM",
		},
		{
			name:     "strip leading date",
			tx:       ofxgo.Transaction{Name: "01/15 SHELL OIL"},
			expected: "SHELL OIL",
		},
		{
			name:     "generic name falls back to memo",
			tx:       ofxgo.Transaction{Name: "DEBIT", Memo: "TARGET T-1234"},
			expected: "TARGET T-1234",
		},
		{
			name:     "payee wins",
			tx:       ofxgo.Transaction{Name: "ACH DEBIT XYZ", Payee: &ofxgo.Payee{Name: "City Utilities"}},
			expected: "City Utilities",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, merchantName(tt.tx))
		})
	}
}

func TestCategoryAndMode(t *testing.T) {
	tests := []struct {
		trnType      string
		amount       float64
		creditCard   bool
		wantCategory model.Category
		wantMode     model.PaymentMode
	}{
		{trnType: "INT", amount: 1.2, wantCategory: model.CategoryIncome, wantMode: model.ModeBankTransfer},
		{trnType: "DIRECTDEP", amount: 2500, wantCategory: model.CategoryIncome, wantMode: model.ModeBankTransfer},
		{trnType: "CREDIT", amount: 40, wantCategory: model.CategoryIncome, wantMode: model.ModeBankTransfer},
		{trnType: "FEE", amount: -5, wantCategory: model.CategoryBanking, wantMode: model.ModeBankTransfer},
		{trnType: "ATM", amount: -60, wantCategory: model.CategoryBanking, wantMode: model.ModeCash},
		{trnType: "POS", amount: -12, wantMode: model.ModeDebitCard},
		{trnType: "CHECK", amount: -500, wantMode: model.ModeCheck},
		{trnType: "DEBIT", amount: -30, creditCard: true, wantMode: model.ModeCreditCard},
	}

	for _, tt := range tests {
		t.Run(tt.trnType, func(t *testing.T) {
			assert.Equal(t, tt.wantCategory, categoryFor(tt.trnType, tt.amount))
			assert.Equal(t, tt.wantMode, paymentMode(tt.trnType, tt.creditCard))
		})
	}
}

func TestConvertGeneratesMissingID(t *testing.T) {
	tx := NewParser().convert(ofxgo.Transaction{
		TrnType: ofxgo.TrnTypeDebit,
		Name:    "CORNER STORE",
	}, "ACCT-1", false)

	assert.Equal(t, "ACCT-1", tx.CustomerID)
	assert.NotEmpty(t, tx.TransactionID)
	assert.Equal(t, tx.GenerateID(), tx.TransactionID)
}

func TestPreprocess(t *testing.T) {
	in := "\n  <SEVERITY>Warn</SEVERITY>\n<CODE\n<NAME>Shop"
	assert.Equal(t, "<SEVERITY>WARN</SEVERITY>\n<CODE>\n<NAME>Shop", preprocess(in))
}

func TestAccounts(t *testing.T) {
	stmt, err := NewParser().Parse(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"1234567890"}, stmt.Accounts)
}
