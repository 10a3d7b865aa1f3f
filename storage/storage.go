package storage

import (
	"errors"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"timetable-api/domain"
)

// Tables names the table and queue resources the service uses.
type Tables struct {
	Users        string
	Tasks        string
	Completions  string
	Targets      string
	Audio        string
	BillingQueue string
}

// Storage provides access to underlying persistence mechanisms.
type Storage struct {
	users        *aztables.Client
	tasks        *aztables.Client
	completions  *aztables.Client
	targets      *aztables.Client
	audio        *aztables.Client
	billingQueue *azqueue.QueueClient
}

// New creates a Storage instance from the given connection string.
func New(connStr string, tables Tables) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	bq, err := azqueue.NewQueueClientFromConnectionString(connStr, tables.BillingQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{
		users:        svc.NewClient(tables.Users),
		tasks:        svc.NewClient(tables.Tasks),
		completions:  svc.NewClient(tables.Completions),
		targets:      svc.NewClient(tables.Targets),
		audio:        svc.NewClient(tables.Audio),
		billingQueue: bq,
	}, nil
}

// hasStatus reports whether err is a table-service response with the given
// HTTP status code.
func hasStatus(err error, code int) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == code
}

func notFoundErr(err error) error {
	if hasStatus(err, http.StatusNotFound) {
		return domain.ErrNotFound
	}
	return err
}
