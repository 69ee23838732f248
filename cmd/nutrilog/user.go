package nutrilog

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/saadjs/nutrilog/internal/domain"
	"github.com/saadjs/nutrilog/internal/service"
)

var (
	userName       string
	userCustomerID string
	userEmail      string
	userPassword   string
	userUse        bool
	userJSON       bool
)

type userView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
}

func toUserView(u *domain.User) userView {
	return userView{ID: u.ID(), Name: u.Name(), Email: u.Email(), CustomerID: u.CustomerID()}
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a local user without credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			u, err := service.CreateUser(sqldb, userName, userCustomerID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", u.ID(), u.Name())
			return useIfRequested(cmd.OutOrStdout(), sqldb, u.ID())
		})
	},
}

var userRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a user with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			u, err := service.RegisterUser(sqldb, service.RegisterUserInput{Name: userName, Email: userEmail, Password: userPassword})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered user %s <%s>\n", u.ID(), u.Email())
			return useIfRequested(cmd.OutOrStdout(), sqldb, u.ID())
		})
	},
}

var userLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify credentials and make that user current",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			u, err := service.Login(sqldb, userEmail, userPassword)
			if err != nil {
				return err
			}
			if err := service.SetConfig(sqldb, service.ConfigCurrentUser, u.ID()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", u.Name(), u.ID())
			return nil
		})
	},
}

var userUseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Make a user current",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			return setCurrentUser(cmd.OutOrStdout(), sqldb, args[0])
		})
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			users, err := service.ListUsers(sqldb)
			if err != nil {
				return err
			}
			if userJSON {
				views := make([]userView, 0, len(users))
				for _, u := range users {
					views = append(views, toUserView(u))
				}
				return printJSON(cmd.OutOrStdout(), views)
			}
			current, _, err := service.GetConfig(sqldb, service.ConfigCurrentUser)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ID\tNAME\tEMAIL\tCURRENT")
			for _, u := range users {
				mark := ""
				if u.ID() == current {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", u.ID(), u.Name(), u.Email(), mark)
			}
			return nil
		})
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a user (default: the active user)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			id, err := userArg(sqldb, args)
			if err != nil {
				return err
			}
			u, err := service.GetUser(sqldb, id)
			if err != nil {
				return err
			}
			if userJSON {
				return printJSON(cmd.OutOrStdout(), toUserView(u))
			}
			v := toUserView(u)
			fmt.Fprintf(cmd.OutOrStdout(), "ID: %s\nName: %s\nEmail: %s\nCustomer: %s\n", v.ID, v.Name, v.Email, v.CustomerID)
			return nil
		})
	},
}

var userUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update a user (default: the active user)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			id, err := userArg(sqldb, args)
			if err != nil {
				return err
			}
			patch := domain.UserPatch{}
			if cmd.Flags().Changed("name") {
				patch.Name = &userName
			}
			if cmd.Flags().Changed("customer-id") {
				patch.CustomerID = &userCustomerID
			}
			if patch.Name == nil && patch.CustomerID == nil {
				return domain.Validationf("set at least one of --name or --customer-id")
			}
			u, err := service.UpdateUser(sqldb, id, patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated user %s\n", u.ID())
			return nil
		})
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user and everything they own",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(sqldb *sql.DB) error {
			if err := service.DeleteUser(sqldb, args[0]); err != nil {
				return err
			}
			current, ok, err := service.GetConfig(sqldb, service.ConfigCurrentUser)
			if err != nil {
				return err
			}
			if ok && current == args[0] {
				if err := service.UnsetConfig(sqldb, service.ConfigCurrentUser); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", args[0])
			return nil
		})
	},
}

func userArg(sqldb *sql.DB, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return activeUserID(sqldb)
}

func useIfRequested(w io.Writer, sqldb *sql.DB, id string) error {
	if !userUse {
		return nil
	}
	return setCurrentUser(w, sqldb, id)
}

func setCurrentUser(w io.Writer, sqldb *sql.DB, id string) error {
	u, err := service.GetUser(sqldb, id)
	if err != nil {
		return err
	}
	if err := service.SetConfig(sqldb, service.ConfigCurrentUser, u.ID()); err != nil {
		return err
	}
	fmt.Fprintf(w, "Current user: %s (%s)\n", u.Name(), u.ID())
	return nil
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd, userRegisterCmd, userLoginCmd, userUseCmd, userListCmd, userShowCmd, userUpdateCmd, userDeleteCmd)

	for _, c := range []*cobra.Command{userAddCmd, userRegisterCmd, userUpdateCmd} {
		c.Flags().StringVar(&userName, "name", "", "Display name")
	}
	for _, c := range []*cobra.Command{userAddCmd, userUpdateCmd} {
		c.Flags().StringVar(&userCustomerID, "customer-id", "", "External customer id")
	}
	for _, c := range []*cobra.Command{userRegisterCmd, userLoginCmd} {
		c.Flags().StringVar(&userEmail, "email", "", "Email address")
		c.Flags().StringVar(&userPassword, "password", "", "Password")
		_ = c.MarkFlagRequired("email")
		_ = c.MarkFlagRequired("password")
	}
	for _, c := range []*cobra.Command{userAddCmd, userRegisterCmd} {
		c.Flags().BoolVar(&userUse, "use", false, "Make the new user current")
	}
	for _, c := range []*cobra.Command{userListCmd, userShowCmd} {
		c.Flags().BoolVar(&userJSON, "json", false, "Output JSON")
	}
}
