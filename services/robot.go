package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"robot-manager/database"
	"robot-manager/metrics"
	"robot-manager/models"
	"robot-manager/repositories/base"
	"robot-manager/storage"
	"robot-manager/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("robot-manager/services")

const (
	defaultPerPage      = 15
	defaultDownloadMIME = "application/octet-stream"
)

// RobotService is the aggregate writer and query service for robots.
type RobotService struct {
	db        *database.Database
	store     BlobStore
	cache     RobotCache
	events    EventPublisher
	metrics   *metrics.Metrics
	maxUpload int64
	logger    *slog.Logger
}

// NewRobotService creates a new instance of RobotService.
func NewRobotService(db *database.Database, store BlobStore, cache RobotCache, events EventPublisher, m *metrics.Metrics, maxUpload int64, logger *slog.Logger) *RobotService {
	return &RobotService{
		db:        db,
		store:     store,
		cache:     cache,
		events:    events,
		metrics:   m,
		maxUpload: maxUpload,
		logger:    logger.With("component", "robot_service"),
	}
}

// writtenBlob is a blob this request put in the file store.
type writtenBlob struct {
	disk string
	path string
}

// blobJournal records blobs written during one unit of work so they can be
// removed again if the transaction does not commit.
type blobJournal struct {
	blobs []writtenBlob
}

func (j *blobJournal) add(blob storage.Blob) {
	j.blobs = append(j.blobs, writtenBlob{disk: blob.Disk, path: blob.Path})
}

// ===================================================================
// CREATE
// ===================================================================

// Create inserts a robot with its parameters, images, files and the
// initial version snapshot as one unit of work.
func (rs *RobotService) Create(ctx context.Context, caller models.Caller, req *models.CreateRobotRequest) (robot *models.Robot, err error) {
	ctx, span := tracer.Start(ctx, "RobotService.Create")
	defer func() { rs.finish(span, OpCreate, err) }()

	if fields := validateCreate(req, rs.maxUpload); len(fields) > 0 {
		return nil, utils.NewValidationError(fields)
	}

	tx, err := rs.db.UoW.Begin(ctx)
	if err != nil {
		return nil, utils.NewInternalServerError("Failed to create robot", err)
	}
	journal := &blobJournal{}
	defer func() {
		if r := recover(); r != nil {
			rs.db.UoW.Rollback(tx)
			rs.discard(ctx, journal)
			panic(r)
		}
	}()

	robotID, err := rs.createAggregate(ctx, tx, caller, req, journal)
	if err != nil {
		rs.db.UoW.Rollback(tx)
		rs.discard(ctx, journal)
		return nil, utils.NewInternalServerError("Failed to create robot", err)
	}

	if err := rs.db.UoW.Commit(tx); err != nil {
		rs.db.UoW.Rollback(tx)
		rs.discard(ctx, journal)
		return nil, utils.NewInternalServerError("Failed to commit robot creation", err)
	}
	span.SetAttributes(attribute.Int64("robot.id", int64(robotID)))

	robot, err = rs.loadAggregate(ctx, rs.db.DB.WithContext(ctx), robotID, false)
	if err != nil {
		return nil, utils.NewInternalServerError("Failed to load created robot", err)
	}

	rs.logger.Info("Robot created", "robot_id", robot.ID, "user_id", caller.UserID,
		"parameters", len(robot.Parameters), "images", len(robot.Images), "files", len(robot.Files))
	rs.publish(ctx, models.EventRobotCreated, robot)
	return robot, nil
}

func (rs *RobotService) createAggregate(ctx context.Context, tx *gorm.DB, caller models.Caller, req *models.CreateRobotRequest, journal *blobJournal) (uint, error) {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	robot := &models.Robot{
		UserID:      caller.UserID,
		Name:        req.Name,
		Description: req.Description,
		Language:    req.Language,
		Tags:        datatypes.JSONSlice[string](tags),
		Code:        req.Code,
		IsActive:    isActive,
		Version:     1,
	}
	if err := rs.db.Robots.Create(tx, robot); err != nil {
		return 0, err
	}

	for _, input := range req.Parameters {
		param := input.ToModel(robot.ID)
		if err := rs.db.Parameters.Create(tx, &param); err != nil {
			return 0, err
		}
	}

	if err := rs.attachImages(ctx, tx, robot.ID, req.Images, req.ImageTitles, req.ImageCaptions, 0, true, journal); err != nil {
		return 0, err
	}
	if err := rs.attachFiles(ctx, tx, robot.ID, req.Files, req.FileNames, 0, journal); err != nil {
		return 0, err
	}

	changelog := models.InitialChangelog
	createdBy := caller.UserID
	initial := &models.RobotVersion{
		RobotID:   robot.ID,
		Version:   1,
		Code:      req.Code,
		Changelog: &changelog,
		IsCurrent: true,
		CreatedBy: &createdBy,
	}
	if err := rs.db.Versions.Create(tx, initial); err != nil {
		return 0, err
	}

	return robot.ID, nil
}

// ===================================================================
// UPDATE
// ===================================================================

// Update applies a partial payload to an accessible robot. Fields left out
// of the payload are never cleared.
func (rs *RobotService) Update(ctx context.Context, caller models.Caller, robotID uint, req *models.UpdateRobotRequest) (robot *models.Robot, err error) {
	ctx, span := tracer.Start(ctx, "RobotService.Update", trace.WithAttributes(attribute.Int64("robot.id", int64(robotID))))
	defer func() { rs.finish(span, OpUpdate, err) }()

	if fields := validateUpdate(req, rs.maxUpload); len(fields) > 0 {
		return nil, utils.NewValidationError(fields)
	}

	current, err := rs.db.Robots.FindAccessible(rs.db.DB.WithContext(ctx), robotID, caller)
	if err != nil {
		return nil, rs.notFoundOr(err, "Failed to update robot")
	}

	tx, err := rs.db.UoW.Begin(ctx)
	if err != nil {
		return nil, utils.NewInternalServerError("Failed to update robot", err)
	}
	journal := &blobJournal{}
	defer func() {
		if r := recover(); r != nil {
			rs.db.UoW.Rollback(tx)
			rs.discard(ctx, journal)
			panic(r)
		}
	}()

	obsolete, err := rs.updateAggregate(ctx, tx, caller, current, req, journal)
	if err != nil {
		rs.db.UoW.Rollback(tx)
		rs.discard(ctx, journal)
		return nil, utils.NewInternalServerError("Failed to update robot", err)
	}

	if err := rs.db.UoW.Commit(tx); err != nil {
		rs.db.UoW.Rollback(tx)
		rs.discard(ctx, journal)
		return nil, utils.NewInternalServerError("Failed to commit robot update", err)
	}

	// Blobs of removed rows go only once the removal is durable.
	for _, blob := range obsolete {
		rs.deleteBlob(ctx, blob)
	}
	rs.invalidate(ctx, robotID)

	robot, err = rs.loadAggregate(ctx, rs.db.DB.WithContext(ctx), robotID, false)
	if err != nil {
		return nil, utils.NewInternalServerError("Failed to load updated robot", err)
	}

	rs.logger.Info("Robot updated", "robot_id", robot.ID, "user_id", caller.UserID, "version", robot.Version)
	rs.publish(ctx, models.EventRobotUpdated, robot)
	return robot, nil
}

// updateAggregate runs every relational step of an update inside tx and
// returns the blobs that became unreferenced.
func (rs *RobotService) updateAggregate(ctx context.Context, tx *gorm.DB, caller models.Caller, current *models.Robot, req *models.UpdateRobotRequest, journal *blobJournal) ([]writtenBlob, error) {
	robotID := current.ID
	codeChanged := req.Code != nil && *req.Code != current.Code
	shouldVersion := codeChanged && req.CreateVersion

	if err := rs.db.Robots.Update(tx, robotID, scalarUpdates(req)); err != nil {
		return nil, err
	}

	version := current.Version
	if codeChanged {
		next, err := rs.db.Robots.IncrementVersion(tx, robotID)
		if err != nil {
			return nil, err
		}
		version = next
	}

	if req.Parameters != nil {
		if err := rs.reconcileParameters(tx, robotID, *req.Parameters); err != nil {
			return nil, err
		}
	}

	var obsolete []writtenBlob

	images, err := rs.db.Images.FindForRobot(tx, robotID, req.DeleteImageIDs)
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		if err := rs.db.Images.Delete(tx, img.ID); err != nil {
			return nil, err
		}
		obsolete = append(obsolete, writtenBlob{disk: img.Disk, path: img.Path})
		if img.ThumbnailPath != nil && *img.ThumbnailPath != "" {
			obsolete = append(obsolete, writtenBlob{disk: img.Disk, path: *img.ThumbnailPath})
		}
	}

	files, err := rs.db.Files.FindForRobot(tx, robotID, req.DeleteFileIDs)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := rs.db.Files.Delete(tx, f.ID); err != nil {
			return nil, err
		}
		obsolete = append(obsolete, writtenBlob{disk: f.Disk, path: f.Path})
	}

	if len(req.Images) > 0 {
		maxSort, err := rs.db.Images.MaxSortOrder(tx, robotID)
		if err != nil {
			return nil, err
		}
		if err := rs.attachImages(ctx, tx, robotID, req.Images, req.ImageTitles, req.ImageCaptions, maxSort+1, false, journal); err != nil {
			return nil, err
		}
	}

	if len(req.Files) > 0 {
		maxSort, err := rs.db.Files.MaxSortOrder(tx, robotID)
		if err != nil {
			return nil, err
		}
		if err := rs.attachFiles(ctx, tx, robotID, req.Files, req.FileNames, maxSort+1, journal); err != nil {
			return nil, err
		}
	}

	if shouldVersion {
		if err := rs.db.Versions.ClearCurrent(tx, robotID); err != nil {
			return nil, err
		}

		changelog := models.CodeUpdateChangelog
		if req.Changelog != nil && *req.Changelog != "" {
			changelog = *req.Changelog
		}
		createdBy := caller.UserID
		snapshot := &models.RobotVersion{
			RobotID:   robotID,
			Version:   version,
			Code:      *req.Code,
			Changelog: &changelog,
			IsCurrent: true,
			CreatedBy: &createdBy,
		}
		if err := rs.db.Versions.Create(tx, snapshot); err != nil {
			return nil, err
		}
	}

	return obsolete, nil
}

// scalarUpdates collects the robot columns present in the payload.
func scalarUpdates(req *models.UpdateRobotRequest) map[string]interface{} {
	fields := make(map[string]interface{})
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Description.Set {
		fields["description"] = req.Description.Value
	}
	if req.Language != nil {
		fields["language"] = *req.Language
	}
	if req.Tags != nil {
		tags := *req.Tags
		if tags == nil {
			tags = []string{}
		}
		fields["tags"] = datatypes.JSONSlice[string](tags)
	}
	if req.Code != nil {
		fields["code"] = *req.Code
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	return fields
}

// reconcileParameters treats params as the complete parameter set: rows
// whose id is not listed are deleted, listed ids are updated in place and
// entries without an id are inserted.
func (rs *RobotService) reconcileParameters(tx *gorm.DB, robotID uint, params []models.ParameterInput) error {
	keep := make([]uint, 0, len(params))
	for _, p := range params {
		if id, ok := p.ExistingID(); ok {
			keep = append(keep, id)
		}
	}

	if _, err := rs.db.Parameters.DeleteExcept(tx, robotID, keep); err != nil {
		return err
	}

	for _, p := range params {
		if id, ok := p.ExistingID(); ok {
			if err := rs.db.Parameters.UpdateForRobot(tx, robotID, id, p.UpdateFields()); err != nil {
				return err
			}
			continue
		}

		param := p.ToModel(robotID)
		if err := rs.db.Parameters.Create(tx, &param); err != nil {
			return err
		}
	}
	return nil
}

// ===================================================================
// DELETE
// ===================================================================

// Delete removes the robot's stored blobs and tombstones the robot row.
// Child rows are kept.
func (rs *RobotService) Delete(ctx context.Context, caller models.Caller, robotID uint) (err error) {
	ctx, span := tracer.Start(ctx, "RobotService.Delete", trace.WithAttributes(attribute.Int64("robot.id", int64(robotID))))
	defer func() { rs.finish(span, OpDelete, err) }()

	db := rs.db.DB.WithContext(ctx)
	robot, err := rs.db.Robots.FindAccessible(db, robotID, caller)
	if err != nil {
		return rs.notFoundOr(err, "Failed to delete robot")
	}

	images, err := rs.db.Images.ListByRobot(db, robotID)
	if err != nil {
		return utils.NewInternalServerError("Failed to delete robot", err)
	}
	files, err := rs.db.Files.ListByRobot(db, robotID)
	if err != nil {
		return utils.NewInternalServerError("Failed to delete robot", err)
	}

	for _, img := range images {
		rs.deleteBlob(ctx, writtenBlob{disk: img.Disk, path: img.Path})
		if img.ThumbnailPath != nil && *img.ThumbnailPath != "" {
			rs.deleteBlob(ctx, writtenBlob{disk: img.Disk, path: *img.ThumbnailPath})
		}
	}
	for _, f := range files {
		rs.deleteBlob(ctx, writtenBlob{disk: f.Disk, path: f.Path})
	}

	if err := rs.db.Robots.SoftDelete(db, robotID); err != nil {
		return rs.notFoundOr(err, "Failed to delete robot")
	}
	rs.invalidate(ctx, robotID)

	rs.logger.Info("Robot deleted", "robot_id", robotID, "user_id", caller.UserID)
	rs.publish(ctx, models.EventRobotDeleted, robot)
	return nil
}

// ===================================================================
// QUERIES
// ===================================================================

// Show returns one accessible robot with its children and version history.
// The robot row is read first; the cache only spares reloading the children.
func (rs *RobotService) Show(ctx context.Context, caller models.Caller, robotID uint) (robot *models.Robot, err error) {
	ctx, span := tracer.Start(ctx, "RobotService.Show", trace.WithAttributes(attribute.Int64("robot.id", int64(robotID))))
	defer func() { rs.finish(span, OpShow, err) }()

	db := rs.db.DB.WithContext(ctx)
	if _, err := rs.db.Robots.FindAccessible(db, robotID, caller); err != nil {
		return nil, rs.notFoundOr(err, "Failed to load robot")
	}

	cached, cacheErr := rs.cache.GetRobot(ctx, robotID)
	if cacheErr != nil {
		rs.logger.Warn("Robot cache read failed", "robot_id", robotID, slog.Any("error", cacheErr))
	}
	if cached != nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	robot, err = rs.loadAggregate(ctx, db, robotID, true)
	if err != nil {
		return nil, rs.notFoundOr(err, "Failed to load robot")
	}

	if err := rs.cache.SaveRobot(ctx, robot); err != nil {
		rs.logger.Warn("Robot cache write failed", "robot_id", robotID, slog.Any("error", err))
	}
	return robot, nil
}

// List returns one page of robots visible to caller, newest first.
func (rs *RobotService) List(ctx context.Context, caller models.Caller, query models.ListRobotsQuery) (page *models.RobotPage, err error) {
	ctx, span := tracer.Start(ctx, "RobotService.List")
	defer func() { rs.finish(span, OpList, err) }()

	if query.Page < 1 {
		query.Page = 1
	}
	if query.Page > utils.MaxPage {
		query.Page = utils.MaxPage
	}
	if query.PerPage < 1 {
		query.PerPage = defaultPerPage
	}

	db := rs.db.DB.WithContext(ctx)
	robots, total, err := rs.db.Robots.List(db, caller, query)
	if err != nil {
		return nil, utils.NewInternalServerError("Failed to list robots", err)
	}
	if err := rs.decorate(db, robots); err != nil {
		return nil, utils.NewInternalServerError("Failed to list robots", err)
	}

	return &models.RobotPage{
		Data: robots,
		Meta: models.NewPageMeta(query.Page, query.PerPage, total),
	}, nil
}

// Download resolves an attachment of an accessible robot for streaming.
// The caller closes Download.Content.
func (rs *RobotService) Download(ctx context.Context, caller models.Caller, robotID, fileID uint) (dl *models.Download, err error) {
	ctx, span := tracer.Start(ctx, "RobotService.Download", trace.WithAttributes(
		attribute.Int64("robot.id", int64(robotID)),
		attribute.Int64("file.id", int64(fileID)),
	))
	defer func() { rs.finish(span, OpDownload, err) }()

	db := rs.db.DB.WithContext(ctx)
	if _, err := rs.db.Robots.FindAccessible(db, robotID, caller); err != nil {
		return nil, rs.notFoundOr(err, "Failed to load robot")
	}

	file, err := rs.db.Files.GetForRobot(db, robotID, fileID)
	if err != nil {
		if base.IsEntityNotFound(err) {
			return nil, utils.NewNotFoundError("File not found")
		}
		return nil, utils.NewInternalServerError("Failed to load file", err)
	}

	content, size, err := rs.store.Open(ctx, file.Disk, file.Path)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, utils.NewNotFoundError("File not found in storage")
		}
		return nil, utils.NewInternalServerError("Failed to open file", err)
	}

	name := path.Base(file.Path)
	if file.Name != nil && *file.Name != "" {
		name = *file.Name
	}
	mimeType := defaultDownloadMIME
	if file.MimeType != nil && *file.MimeType != "" {
		mimeType = *file.MimeType
	}

	return &models.Download{Name: name, MimeType: mimeType, Size: size, Content: content}, nil
}

// ===================================================================
// HELPERS
// ===================================================================

func (rs *RobotService) attachImages(ctx context.Context, tx *gorm.DB, robotID uint, uploads []models.Upload, titles, captions []*string, startSort int, markPrimary bool, journal *blobJournal) error {
	dir := fmt.Sprintf("robots/%d", robotID)
	for i, upload := range uploads {
		mimeType := ImageMimeType(upload)
		blob, err := rs.store.Store(ctx, dir, upload.Filename, upload.Data, mimeType)
		if err != nil {
			return fmt.Errorf("failed to store image %d: %w", i, err)
		}
		journal.add(blob)
		rs.metrics.BlobWritten(BlobKindImage, upload.Size())

		width, height := rs.store.Dimensions(ctx, blob.Disk, blob.Path)
		url := rs.store.AbsoluteURL(&blob.URL, blob.Disk, blob.Path)
		size := upload.Size()

		image := &models.RobotImage{
			RobotID:   robotID,
			Title:     blankToNil(models.At(titles, i)),
			Caption:   blankToNil(models.At(captions, i)),
			Disk:      blob.Disk,
			Path:      blob.Path,
			URL:       &url,
			MimeType:  utils.OptionalString(mimeType),
			SizeBytes: &size,
			Width:     width,
			Height:    height,
			IsPrimary: markPrimary && i == 0,
			SortOrder: startSort + i,
		}
		if err := rs.db.Images.Create(tx, image); err != nil {
			return err
		}
	}
	return nil
}

func (rs *RobotService) attachFiles(ctx context.Context, tx *gorm.DB, robotID uint, uploads []models.Upload, names []*string, startSort int, journal *blobJournal) error {
	dir := fmt.Sprintf("robots/%d/files", robotID)
	for i, upload := range uploads {
		mimeType := FileMimeType(upload)
		blob, err := rs.store.Store(ctx, dir, upload.Filename, upload.Data, mimeType)
		if err != nil {
			return fmt.Errorf("failed to store file %d: %w", i, err)
		}
		journal.add(blob)
		rs.metrics.BlobWritten(BlobKindFile, upload.Size())

		name := blankToNil(models.At(names, i))
		if name == nil {
			name = utils.OptionalString(upload.Filename)
		}
		url := rs.store.AbsoluteURL(&blob.URL, blob.Disk, blob.Path)
		size := upload.Size()

		file := &models.RobotFile{
			RobotID:   robotID,
			Name:      name,
			Disk:      blob.Disk,
			Path:      blob.Path,
			URL:       &url,
			MimeType:  utils.OptionalString(mimeType),
			FileType:  models.FileTypeFor(storage.Extension(upload.Filename)),
			SizeBytes: &size,
			SortOrder: startSort + i,
		}
		if err := rs.db.Files.Create(tx, file); err != nil {
			return err
		}
	}
	return nil
}

// loadAggregate reads the robot with children and fills the response-only fields.
func (rs *RobotService) loadAggregate(ctx context.Context, db *gorm.DB, robotID uint, withVersions bool) (*models.Robot, error) {
	robot, err := rs.db.Robots.LoadAggregate(db, robotID, withVersions)
	if err != nil {
		return nil, err
	}
	robots := []models.Robot{*robot}
	if err := rs.decorate(db, robots); err != nil {
		return nil, err
	}
	return &robots[0], nil
}

// decorate attaches owner summaries and normalizes image URLs in place.
func (rs *RobotService) decorate(db *gorm.DB, robots []models.Robot) error {
	if len(robots) == 0 {
		return nil
	}

	ownerIDs := make([]uint, 0, len(robots))
	seen := make(map[uint]bool, len(robots))
	for _, r := range robots {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			ownerIDs = append(ownerIDs, r.UserID)
		}
	}
	owners, err := rs.db.Users.Summaries(db, ownerIDs)
	if err != nil {
		return err
	}

	for i := range robots {
		robots[i].User = owners[robots[i].UserID]
		for j := range robots[i].Images {
			img := &robots[i].Images[j]
			url := rs.store.AbsoluteURL(img.URL, img.Disk, img.Path)
			img.URL = utils.OptionalString(url)
		}
	}
	return nil
}

// discard removes blobs written by a unit of work that did not commit.
// Failures leave orphans behind and are only logged.
func (rs *RobotService) discard(ctx context.Context, journal *blobJournal) {
	for _, blob := range journal.blobs {
		rs.deleteBlob(ctx, blob)
	}
}

func (rs *RobotService) deleteBlob(ctx context.Context, blob writtenBlob) {
	if err := rs.store.Delete(ctx, blob.disk, blob.path); err != nil {
		rs.logger.Warn("Failed to delete blob", "disk", blob.disk, "path", blob.path, slog.Any("error", err))
	}
}

func (rs *RobotService) invalidate(ctx context.Context, robotID uint) {
	if err := rs.cache.InvalidateRobot(ctx, robotID); err != nil {
		rs.logger.Warn("Robot cache invalidation failed", "robot_id", robotID, slog.Any("error", err))
	}
}

func (rs *RobotService) publish(ctx context.Context, event string, robot *models.Robot) {
	payload := models.RobotEvent{
		Event:   event,
		RobotID: robot.ID,
		UserID:  robot.UserID,
		Version: robot.Version,
		At:      time.Now().UTC(),
	}
	if err := rs.events.PublishRobotEvent(ctx, payload); err != nil {
		rs.logger.Warn("Failed to publish robot event", "event", event, "robot_id", robot.ID, slog.Any("error", err))
	}
}

// notFoundOr maps a missing or inaccessible robot to 404 and anything else to 500.
func (rs *RobotService) notFoundOr(err error, message string) error {
	if base.IsEntityNotFound(err) {
		return utils.NewNotFoundError("Robot not found")
	}
	return utils.NewInternalServerError(message, err)
}

func (rs *RobotService) finish(span trace.Span, operation string, err error) {
	rs.metrics.Operation(operation, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func blankToNil(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	return value
}
