package flycli

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dovetail-dev/dovetail/internal/credentials"
	"github.com/dovetail-dev/dovetail/internal/vendorcli"
)

const (
	statusSubcommandConstant  = "status"
	appsSubcommandConstant    = "apps"
	listSubcommandConstant    = "list"
	createSubcommandConstant  = "create"
	destroySubcommandConstant = "destroy"
	deploySubcommandConstant  = "deploy"
	secretsSubcommandConstant = "secrets"
	importSubcommandConstant  = "import"
	authSubcommandConstant    = "auth"
	whoamiSubcommandConstant  = "whoami"
	jsonFlagConstant          = "--json"
	appFlagConstant           = "--app"
	orgFlagConstant           = "--org"
	configFlagConstant        = "--config"
	strategyFlagConstant      = "--strategy"
	remoteOnlyFlagConstant    = "--remote-only"
	detachFlagConstant        = "--detach"
	stageFlagConstant         = "--stage"
	yesFlagConstant           = "--yes"

	appFieldNameConstant     = "app"
	secretsFieldNameConstant = "secrets"
	secretKeyMessageConstant = "secret names must not be blank or contain '='"

	secretAssignmentConstant     = "="
	secretLineTerminatorConstant = "\n"
	multilineQuoteConstant       = `"""`

	appStatusOperationNameConstant     = vendorcli.OperationName("AppStatus")
	listAppsOperationNameConstant      = vendorcli.OperationName("ListApps")
	createAppOperationNameConstant     = vendorcli.OperationName("CreateApp")
	deployOperationNameConstant        = vendorcli.OperationName("Deploy")
	importSecretsOperationNameConstant = vendorcli.OperationName("ImportSecrets")
	destroyAppOperationNameConstant    = vendorcli.OperationName("DestroyApp")
	whoamiOperationNameConstant        = vendorcli.OperationName("Whoami")
)

// Machine summarizes one Fly machine backing an app.
type Machine struct {
	ID     string
	State  string
	Region string
}

// App describes a Fly.io application.
type App struct {
	Name         string
	Status       string
	Hostname     string
	Organization string
	Deployed     bool
	Machines     []Machine
}

// DeployOptions configures Deploy.
type DeployOptions struct {
	App               string
	ConfigurationPath string
	Strategy          string
	RemoteOnly        bool
	Detach            bool
	// Timeout bounds the whole deployment; zero uses the profile default.
	Timeout time.Duration
}

type appResponse struct {
	Name         string `json:"Name"`
	Status       string `json:"Status"`
	Hostname     string `json:"Hostname"`
	Deployed     bool   `json:"Deployed"`
	Organization struct {
		Slug string `json:"Slug"`
	} `json:"Organization"`
	Machines []struct {
		ID     string `json:"id"`
		State  string `json:"state"`
		Region string `json:"region"`
	} `json:"Machines"`
}

func (response appResponse) toApp() App {
	app := App{
		Name:         response.Name,
		Status:       response.Status,
		Hostname:     response.Hostname,
		Organization: response.Organization.Slug,
		Deployed:     response.Deployed,
	}
	for _, machine := range response.Machines {
		app.Machines = append(app.Machines, Machine{ID: machine.ID, State: machine.State, Region: machine.Region})
	}
	return app
}

// Client coordinates flyctl invocations through execshell.
type Client struct {
	invoker *vendorcli.Invoker
}

// NewClient constructs a flyctl client running in workingDirectory.
func NewClient(executor vendorcli.CommandExecutor, credential credentials.Credential, workingDirectory string) (*Client, error) {
	invoker, invokerError := vendorcli.NewInvoker(executor, Profile(), credential, workingDirectory)
	if invokerError != nil {
		return nil, invokerError
	}
	return &Client{invoker: invoker}, nil
}

// AppStatus reports the state of an app and its machines.
func (client *Client) AppStatus(executionContext context.Context, appName string) (App, error) {
	name, nameError := vendorcli.RequireValue(appFieldNameConstant, appName)
	if nameError != nil {
		return App{}, nameError
	}

	var response appResponse
	request := vendorcli.Request{Arguments: []string{statusSubcommandConstant, appFlagConstant, name, jsonFlagConstant}}
	if runError := client.invoker.RunJSON(executionContext, appStatusOperationNameConstant, request, &response); runError != nil {
		return App{}, runError
	}
	return response.toApp(), nil
}

// ListApps enumerates the apps visible to the credential.
func (client *Client) ListApps(executionContext context.Context) ([]App, error) {
	var response []appResponse
	request := vendorcli.Request{Arguments: []string{appsSubcommandConstant, listSubcommandConstant, jsonFlagConstant}}
	if runError := client.invoker.RunJSON(executionContext, listAppsOperationNameConstant, request, &response); runError != nil {
		return nil, runError
	}

	apps := make([]App, 0, len(response))
	for _, appEntry := range response {
		apps = append(apps, appEntry.toApp())
	}
	return apps, nil
}

// CreateApp creates an app, optionally inside an organization.
func (client *Client) CreateApp(executionContext context.Context, appName string, organization string) (App, error) {
	name, nameError := vendorcli.RequireValue(appFieldNameConstant, appName)
	if nameError != nil {
		return App{}, nameError
	}

	arguments := []string{appsSubcommandConstant, createSubcommandConstant, name}
	if trimmedOrganization := strings.TrimSpace(organization); len(trimmedOrganization) > 0 {
		arguments = append(arguments, orgFlagConstant, trimmedOrganization)
	}
	arguments = append(arguments, jsonFlagConstant)

	var response appResponse
	if runError := client.invoker.RunJSON(executionContext, createAppOperationNameConstant, vendorcli.Request{Arguments: arguments}, &response); runError != nil {
		return App{}, runError
	}
	return response.toApp(), nil
}

// Deploy runs flyctl deploy and returns its combined output.
func (client *Client) Deploy(executionContext context.Context, options DeployOptions) (string, error) {
	arguments := []string{deploySubcommandConstant}
	if appName := strings.TrimSpace(options.App); len(appName) > 0 {
		arguments = append(arguments, appFlagConstant, appName)
	}
	if configurationPath := strings.TrimSpace(options.ConfigurationPath); len(configurationPath) > 0 {
		arguments = append(arguments, configFlagConstant, configurationPath)
	}
	if strategy := strings.TrimSpace(options.Strategy); len(strategy) > 0 {
		arguments = append(arguments, strategyFlagConstant, strategy)
	}
	if options.RemoteOnly {
		arguments = append(arguments, remoteOnlyFlagConstant)
	}
	if options.Detach {
		arguments = append(arguments, detachFlagConstant)
	}

	executionResult, runError := client.invoker.Run(executionContext, deployOperationNameConstant, vendorcli.Request{Arguments: arguments, Timeout: options.Timeout})
	if runError != nil {
		return "", runError
	}
	return strings.TrimSpace(executionResult.CombinedOutput()), nil
}

// ImportSecrets pipes NAME=VALUE pairs to flyctl secrets import. Staged
// secrets are applied on the next deploy.
func (client *Client) ImportSecrets(executionContext context.Context, appName string, secrets map[string]string, stage bool) error {
	name, nameError := vendorcli.RequireValue(appFieldNameConstant, appName)
	if nameError != nil {
		return nameError
	}
	if len(secrets) == 0 {
		return vendorcli.MissingValueError(secretsFieldNameConstant)
	}

	payload, payloadError := encodeSecrets(secrets)
	if payloadError != nil {
		return payloadError
	}

	arguments := []string{secretsSubcommandConstant, importSubcommandConstant, appFlagConstant, name}
	if stage {
		arguments = append(arguments, stageFlagConstant)
	}

	_, runError := client.invoker.Run(executionContext, importSecretsOperationNameConstant, vendorcli.Request{Arguments: arguments, StandardInput: payload})
	return runError
}

// DestroyApp permanently deletes an app without prompting.
func (client *Client) DestroyApp(executionContext context.Context, appName string) error {
	name, nameError := vendorcli.RequireValue(appFieldNameConstant, appName)
	if nameError != nil {
		return nameError
	}

	request := vendorcli.Request{Arguments: []string{appsSubcommandConstant, destroySubcommandConstant, name, yesFlagConstant}}
	_, runError := client.invoker.Run(executionContext, destroyAppOperationNameConstant, request)
	return runError
}

// Whoami returns the email of the authenticated Fly.io user.
func (client *Client) Whoami(executionContext context.Context) (string, error) {
	var response struct {
		Email string `json:"email"`
	}
	request := vendorcli.Request{Arguments: []string{authSubcommandConstant, whoamiSubcommandConstant, jsonFlagConstant}}
	if runError := client.invoker.RunJSON(executionContext, whoamiOperationNameConstant, request, &response); runError != nil {
		return "", runError
	}
	return response.Email, nil
}

func encodeSecrets(secrets map[string]string) ([]byte, error) {
	names := make([]string, 0, len(secrets))
	for secretName := range secrets {
		trimmedName := strings.TrimSpace(secretName)
		if len(trimmedName) == 0 || strings.Contains(trimmedName, secretAssignmentConstant) {
			return nil, vendorcli.InvalidInputError{FieldName: secretsFieldNameConstant, Message: secretKeyMessageConstant}
		}
		names = append(names, secretName)
	}
	sort.Strings(names)

	var builder strings.Builder
	for _, secretName := range names {
		secretValue := secrets[secretName]
		if strings.Contains(secretValue, secretLineTerminatorConstant) {
			secretValue = multilineQuoteConstant + secretValue + multilineQuoteConstant
		}
		builder.WriteString(strings.TrimSpace(secretName))
		builder.WriteString(secretAssignmentConstant)
		builder.WriteString(secretValue)
		builder.WriteString(secretLineTerminatorConstant)
	}
	return []byte(builder.String()), nil
}
