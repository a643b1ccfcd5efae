package mockbank

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/agmortgage/agbank/internal/calc"
	"github.com/agmortgage/agbank/internal/forms"
	"github.com/agmortgage/agbank/internal/id"
	"github.com/agmortgage/agbank/internal/model"
)

var minInitialDeposit = decimal.NewFromInt(1000)

// Router returns the gin engine serving the REST surface under /api.
func (b *Bank) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), b.logRequests)

	api := r.Group("/api")
	api.POST("/auth/login", b.login)
	api.POST("/auth/register", b.register)

	authed := api.Group("", b.requireAuth)
	authed.GET("/loans", b.listLoans)
	authed.POST("/loans", b.createLoan)
	authed.GET("/savings", b.listSavings)
	authed.POST("/savings", b.createSavings)
	authed.POST("/savings/:id/transactions", b.createTransaction)

	admin := authed.Group("", requireAdmin)
	admin.GET("/users", b.listUsers)
	admin.DELETE("/users/:id", b.deleteUserHandler)
	admin.PATCH("/users/:id/status", b.updateUserStatus)
	admin.PUT("/loans/:id", b.updateLoan)

	return r
}

func (b *Bank) logRequests(c *gin.Context) {
	b.requests.Add(1)
	start := time.Now()
	c.Next()
	b.log.WithFields(logrus.Fields{
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"status":     c.Writer.Status(),
		"duration":   time.Since(start).String(),
		"request_id": c.GetHeader("X-Request-ID"),
	}).Debug("mockbank request")
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (b *Bank) login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	u, ok := b.authenticate(body.Email, body.Password)
	if !ok {
		abort(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !u.IsActive {
		abort(c, http.StatusForbidden, "Account is deactivated")
		return
	}
	b.respondWithSession(c, http.StatusOK, u, "Login successful")
}

func (b *Bank) register(c *gin.Context) {
	var body forms.RegisterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Email == "" || body.FirstName == "" || body.LastName == "" {
		abort(c, http.StatusBadRequest, "Please fill in all required fields")
		return
	}
	if err := calc.ValidatePassword(body.Password); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}
	u, err := b.AddUser(body.Profile, body.Password, model.RoleUser)
	if errors.Is(err, errDuplicateEmail) {
		abort(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		abort(c, http.StatusInternalServerError, "Registration failed")
		return
	}
	b.respondWithSession(c, http.StatusCreated, u, "Registration successful")
}

func (b *Bank) respondWithSession(c *gin.Context, status int, u model.User, message string) {
	token, err := b.issueToken(u)
	if err != nil {
		abort(c, http.StatusInternalServerError, "Could not issue token")
		return
	}
	c.JSON(status, gin.H{"message": message, "user": u, "token": token})
}

func (b *Bank) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, b.allUsers())
}

func (b *Bank) deleteUserHandler(c *gin.Context) {
	uid := id.ID(c.Param("id"))
	if uid == caller(c).ID {
		abort(c, http.StatusBadRequest, "Cannot delete your own account")
		return
	}
	if err := b.deleteUser(uid); err != nil {
		abort(c, http.StatusNotFound, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

type statusBody struct {
	IsActive *bool `json:"isActive"`
}

func (b *Bank) updateUserStatus(c *gin.Context) {
	var body statusBody
	if err := c.ShouldBindJSON(&body); err != nil || body.IsActive == nil {
		abort(c, http.StatusBadRequest, "isActive is required")
		return
	}
	u, err := b.setActive(id.ID(c.Param("id")), *body.IsActive)
	if err != nil {
		abort(c, http.StatusNotFound, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User status updated", "user": u})
}

func (b *Bank) listLoans(c *gin.Context) {
	c.JSON(http.StatusOK, b.visibleLoans(caller(c)))
}

func (b *Bank) createLoan(c *gin.Context) {
	var body model.LoanRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !body.LoanType.Valid() || !body.Amount.IsPositive() || body.Duration <= 0 {
		abort(c, http.StatusBadRequest, "Amount, loan type and duration are required")
		return
	}

	// The client's estimate is advisory; rate and payment are recomputed here.
	rate := calc.LoanRate(body.LoanType)
	payment := calc.Amortize(body.Amount, body.Duration, rate).MonthlyPayment
	loan := model.LoanApplication{
		ID:             id.ID(uuid.NewString()),
		UserID:         caller(c).ID,
		Amount:         body.Amount,
		LoanType:       body.LoanType,
		Purpose:        body.Purpose,
		Duration:       body.Duration,
		MonthlyIncome:  body.MonthlyIncome,
		Collateral:     body.Collateral,
		Guarantor:      body.Guarantor,
		Status:         model.LoanPending,
		AppliedAt:      b.now().UTC(),
		InterestRate:   &rate,
		MonthlyPayment: &payment,
	}

	b.mu.Lock()
	b.loans = append(b.loans, loan)
	b.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"message": "Loan application submitted", "loan": loan})
}

func (b *Bank) updateLoan(c *gin.Context) {
	var body model.LoanReview
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Status == model.LoanRejected && body.RejectionReason == "" {
		abort(c, http.StatusBadRequest, "Rejection reason is required")
		return
	}

	loanID := id.ID(c.Param("id"))
	reviewer := caller(c).ID
	now := b.now().UTC()

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.loans {
		l := &b.loans[i]
		if l.ID != loanID {
			continue
		}
		if !l.Status.CanTransition(body.Status) {
			abort(c, http.StatusBadRequest, fmt.Sprintf("Cannot move a %s loan to %s", l.Status, body.Status))
			return
		}
		l.Status = body.Status
		l.ReviewedAt = &now
		l.ReviewedBy = reviewer
		if body.Status == model.LoanRejected {
			l.RejectionReason = body.RejectionReason
		}
		c.JSON(http.StatusOK, gin.H{"message": "Loan updated", "loan": *l})
		return
	}
	abort(c, http.StatusNotFound, "Loan not found")
}

func (b *Bank) listSavings(c *gin.Context) {
	c.JSON(http.StatusOK, b.visibleAccounts(caller(c)))
}

func (b *Bank) createSavings(c *gin.Context) {
	var body model.NewAccountRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !body.AccountType.Valid() {
		abort(c, http.StatusBadRequest, "Account type must be savings or fixed")
		return
	}
	if body.InitialDeposit.LessThan(minInitialDeposit) {
		abort(c, http.StatusBadRequest, "Minimum initial deposit is 1000")
		return
	}

	now := b.now().UTC()
	b.mu.Lock()
	b.nextAcct++
	account := model.SavingsAccount{
		ID:            id.ID(uuid.NewString()),
		UserID:        caller(c).ID,
		AccountNumber: fmt.Sprintf("%010d", b.nextAcct),
		Balance:       body.InitialDeposit,
		AccountType:   body.AccountType,
		InterestRate:  calc.SavingsRate(body.AccountType),
		CreatedAt:     now,
		Transactions: []model.Transaction{{
			ID:          id.ID(uuid.NewString()),
			Type:        model.TxnDeposit,
			Amount:      body.InitialDeposit,
			Description: "Initial deposit",
			Date:        now,
			Balance:     body.InitialDeposit,
		}},
	}
	b.accounts = append(b.accounts, account)
	b.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"message": "Savings account created", "account": cloneAccount(account)})
}

func (b *Bank) createTransaction(c *gin.Context) {
	var body model.TransactionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abort(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !body.Type.Valid() {
		abort(c, http.StatusBadRequest, "Transaction type must be deposit or withdrawal")
		return
	}
	if !body.Amount.IsPositive() {
		abort(c, http.StatusBadRequest, "Amount must be greater than zero")
		return
	}

	accountID := id.ID(c.Param("id"))
	who := caller(c)
	now := b.now().UTC()

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.accounts {
		a := &b.accounts[i]
		if a.ID != accountID || (a.UserID != who.ID && !who.IsAdmin()) {
			continue
		}
		balance := a.Balance
		if body.Type.IsCredit() {
			balance = balance.Add(body.Amount)
		} else {
			if body.Amount.GreaterThan(balance) {
				abort(c, http.StatusBadRequest, "Insufficient funds")
				return
			}
			balance = balance.Sub(body.Amount)
		}
		txn := model.Transaction{
			ID:          id.ID(uuid.NewString()),
			Type:        body.Type,
			Amount:      body.Amount,
			Description: body.Description,
			Date:        now,
			Balance:     balance,
		}
		a.Balance = balance
		a.Transactions = append(a.Transactions, txn)
		c.JSON(http.StatusCreated, gin.H{"message": "Transaction successful", "transaction": txn, "account": cloneAccount(*a)})
		return
	}
	abort(c, http.StatusNotFound, "Savings account not found")
}
