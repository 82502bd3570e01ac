package bootstrap

import (
	collsvc "github.com/kitapunya/expense-backend/internal/collections/service"
	dirrepo "github.com/kitapunya/expense-backend/internal/directory/repository"
	exprepo "github.com/kitapunya/expense-backend/internal/expenses/repository"
	expsvc "github.com/kitapunya/expense-backend/internal/expenses/service"
	"github.com/kitapunya/expense-backend/internal/sheets"
	usersvc "github.com/kitapunya/expense-backend/internal/users/service"
)

// Services is the wired core shared by the router and the scheduler.
type Services struct {
	Directory *dirrepo.DirectoryRepository
	Resolver  *collsvc.Resolver
	Expenses  *expsvc.ExpenseService
	Users     *usersvc.UserService
}

func NewServices(tables sheets.Tables, cache collsvc.HandleCache) *Services {
	dir := dirrepo.NewDirectoryRepository(tables)
	prov := collsvc.NewProvisioner(tables)
	resolver := collsvc.NewResolver(dir, tables, prov, cache)
	store := exprepo.NewRecordStore(tables)

	return &Services{
		Directory: dir,
		Resolver:  resolver,
		Expenses:  expsvc.NewExpenseService(dir, resolver, store),
		Users:     usersvc.NewUserService(dir, prov, resolver, store),
	}
}
