package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/odahu/odahu-mlflow-aws/internal/mlflow"
)

// RegisteredModelColumns is the table layout for registry model listings.
var RegisteredModelColumns = []Column[mlflow.RegisteredModel]{
	{Name: "Model Name", Value: func(m mlflow.RegisteredModel) string { return m.Name }},
	{Name: "Tags", Value: func(m mlflow.RegisteredModel) string { return formatTags(m.Tags) }},
	{Name: "Created at", Value: func(m mlflow.RegisteredModel) string { return formatTimestamp(m.CreationTimestamp) }},
	{Name: "Updated at", Value: func(m mlflow.RegisteredModel) string { return formatTimestamp(m.LastUpdatedTimestamp) }},
	{Name: "Latest versions", Value: func(m mlflow.RegisteredModel) string {
		lines := make([]string, 0, len(m.LatestVersions))
		for _, version := range m.LatestVersions {
			if version.CurrentStage == "" || version.CurrentStage == "None" {
				lines = append(lines, fmt.Sprintf("Latest: %s", version.Version))
			} else {
				lines = append(lines, fmt.Sprintf("%s: %s", version.CurrentStage, version.Version))
			}
		}
		return strings.Join(lines, "\n")
	}},
}

// ModelVersionColumns is the table layout for model version listings.
var ModelVersionColumns = []Column[mlflow.ModelVersion]{
	{Name: "Model Name", Value: func(v mlflow.ModelVersion) string { return v.Name }},
	{Name: "Version", Value: func(v mlflow.ModelVersion) string { return v.Version }},
	{Name: "Tags", Value: func(v mlflow.ModelVersion) string { return formatTags(v.Tags) }},
	{Name: "Created at", Value: func(v mlflow.ModelVersion) string { return formatTimestamp(v.CreationTimestamp) }},
	{Name: "Updated at", Value: func(v mlflow.ModelVersion) string { return formatTimestamp(v.LastUpdatedTimestamp) }},
	{Name: "User ID", Value: func(v mlflow.ModelVersion) string { return v.UserID }},
	{Name: "Current stage", Value: func(v mlflow.ModelVersion) string { return v.CurrentStage }},
	{Name: "Description", Value: func(v mlflow.ModelVersion) string { return v.Description }},
	{Name: "Source", Value: func(v mlflow.ModelVersion) string { return v.Source }},
	{Name: "Run ID", Value: func(v mlflow.ModelVersion) string { return v.RunID }},
	{Name: "Status", Value: func(v mlflow.ModelVersion) string { return v.Status }},
}

// FunctionColumns is the table layout for deployed function listings.
var FunctionColumns = []Column[lambdatypes.FunctionConfiguration]{
	{Name: "Function name", Value: func(f lambdatypes.FunctionConfiguration) string { return aws.ToString(f.FunctionName) }},
	{Name: "Description", Value: func(f lambdatypes.FunctionConfiguration) string { return aws.ToString(f.Description) }},
}

func formatTags(tags []mlflow.Tag) string {
	lines := make([]string, 0, len(tags))
	for _, tag := range tags {
		lines = append(lines, fmt.Sprintf("%s: %s", tag.Key, tag.Value))
	}
	return strings.Join(lines, "\n")
}

// formatTimestamp renders a registry timestamp, accepting both the second and
// millisecond representations the tracking server emits.
func formatTimestamp(value int64) string {
	if value == 0 {
		return ""
	}
	// Values far in the future are millisecond timestamps.
	if value > time.Now().Unix()+100*365*24*3600 {
		value /= 1000
	}
	return time.Unix(value, 0).UTC().Format("2006-01-02T15:04:05")
}
