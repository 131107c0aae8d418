package service

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/ulvis-relay/internal/models"
	"github.com/SergeiKhy/ulvis-relay/internal/repository"
	"go.uber.org/zap"
)

// Константы worker pool
const (
	defaultWorkerCount   = 3    // Количество воркеров
	defaultChannelBuffer = 1000 // Размер буфера канала
	maxRetries           = 3    // Максимальное количество попыток записи
	maxHistoryLimit      = 100
)

// IssueJournal асинхронный журнал выданных ссылок
type IssueJournal interface {
	Start()
	Stop()
	Record(ctx context.Context, link *models.IssuedLink) error
	Recent(ctx context.Context, limit int) ([]models.IssuedLink, error)
}

// issueJournal реализация журнала с использованием Worker Pool
type issueJournal struct {
	repo        repository.IssueRepository
	logger      *zap.Logger
	linkChannel chan *models.IssuedLink // Канал для выданных ссылок
	workerCount int                     // Количество воркеров
	retryDelay  time.Duration
	wg          sync.WaitGroup // WaitGroup для ожидания завершения воркеров
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewIssueJournal создаёт новый экземпляр журнала
func NewIssueJournal(repo repository.IssueRepository, logger *zap.Logger) IssueJournal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &issueJournal{
		repo:        repo,
		logger:      logger,
		linkChannel: make(chan *models.IssuedLink, defaultChannelBuffer),
		workerCount: defaultWorkerCount,
		retryDelay:  100 * time.Millisecond,
	}
}

// Start запускает worker pool
func (j *issueJournal) Start() {
	j.ctx, j.cancel = context.WithCancel(context.Background())

	j.logger.Info("Запуск воркеров журнала ссылок", zap.Int("count", j.workerCount))

	for i := 0; i < j.workerCount; i++ {
		j.wg.Add(1)
		go j.worker(i)
	}
}

// Stop останавливает worker pool. Записи, уже стоящие в очереди, дописываются до выхода.
func (j *issueJournal) Stop() {
	j.logger.Info("Остановка журнала ссылок...")
	j.cancel()
	j.wg.Wait()
	j.logger.Info("Журнал ссылок остановлен")
}

// worker записывает ссылки из канала
func (j *issueJournal) worker(id int) {
	defer j.wg.Done()

	j.logger.Debug("Воркер журнала запущен", zap.Int("id", id))

	for {
		select {
		case <-j.ctx.Done():
			j.drain()
			j.logger.Debug("Воркер журнала остановлен", zap.Int("id", id))
			return

		case link, ok := <-j.linkChannel:
			if !ok {
				return
			}
			j.persist(link)
		}
	}
}

// drain дописывает остаток буфера при остановке
func (j *issueJournal) drain() {
	for {
		select {
		case link := <-j.linkChannel:
			j.persist(link)
		default:
			return
		}
	}
}

// persist пишет одну ссылку с retry логикой.
// Контекст не наследует j.ctx, иначе Stop обрывал бы текущую вставку.
func (j *issueJournal) persist(link *models.IssuedLink) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var err error
	for i := 0; i < maxRetries; i++ {
		if err = j.repo.Create(ctx, link); err == nil {
			return
		}
		if i < maxRetries-1 {
			j.logger.Debug("Повторная попытка записи ссылки",
				zap.String("alias", link.Alias),
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(time.Duration(i+1) * j.retryDelay)
		}
	}

	j.logger.Error("Не удалось записать ссылку после всех попыток",
		zap.String("alias", link.Alias),
		zap.Error(err),
	)
}

// Record ставит ссылку в очередь (неблокирующая операция)
func (j *issueJournal) Record(ctx context.Context, link *models.IssuedLink) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case j.linkChannel <- link:
		return nil
	default:
		// Канал заполнен: теряем запись журнала, но не задерживаем ответ
		j.logger.Warn("Буфер журнала заполнен, запись потеряна",
			zap.String("alias", link.Alias),
		)
		return nil
	}
}

// Recent последние выданные ссылки, limit ограничен 1..100
func (j *issueJournal) Recent(ctx context.Context, limit int) ([]models.IssuedLink, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return j.repo.ListRecent(ctx, limit)
}
